package store

import (
	"testing"

	"github.com/digisken/smsauth/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("15551234567", "$2a$12$fakehash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.PhoneNumber != "15551234567" {
		t.Errorf("phone = %q, want %q", u.PhoneNumber, "15551234567")
	}
	if !u.TwoFAEnabled {
		t.Error("expected 2FA enabled by default")
	}
	if u.LastLogin != nil {
		t.Errorf("last_login = %v, want nil", u.LastLogin)
	}
}

func TestUserCreateDuplicatePhone(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("15551234567", "$2a$12$fakehash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("15551234567", "$2a$12$otherhash"); err == nil {
		t.Error("expected unique constraint error for duplicate phone")
	}
}

func TestUserGetByPhone(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("15551234567", "$2a$12$fakehash")

	u, err := us.GetByPhone("15551234567")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != created.ID {
		t.Errorf("id = %d, want %d", u.ID, created.ID)
	}
	if u.PasswordHash != "$2a$12$fakehash" {
		t.Errorf("password_hash = %q, want stored hash", u.PasswordHash)
	}
}

func TestUserGetByPhoneNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.GetByPhone("10000000000")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown phone")
	}
}

func TestUserTouchLogin(t *testing.T) {
	us := setupUserTestDB(t)

	us.Create("15551234567", "$2a$12$fakehash")

	if err := us.TouchLogin("15551234567"); err != nil {
		t.Fatalf("touch login: %v", err)
	}

	u, err := us.GetByPhone("15551234567")
	if err != nil {
		t.Fatalf("get after touch: %v", err)
	}
	if u.LastLogin == nil {
		t.Error("expected last_login to be set")
	}
}
