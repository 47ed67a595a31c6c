package store

import (
	"testing"
	"time"

	"github.com/digisken/smsauth/internal/database"
)

func setupSessionTestDB(t *testing.T) *SessionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db)
}

func TestSessionCreate(t *testing.T) {
	ss := setupSessionTestDB(t)

	sess, err := ss.Create("15551234567", "203.0.113.9", "curl/8.0", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected non-empty token")
	}
	if len(sess.Token) != 43 { // 32 bytes base64url, unpadded
		t.Errorf("token length = %d, want 43", len(sess.Token))
	}
	if sess.PhoneNumber != "15551234567" {
		t.Errorf("phone = %q, want %q", sess.PhoneNumber, "15551234567")
	}
	if sess.IPAddress != "203.0.113.9" {
		t.Errorf("ip = %q, want %q", sess.IPAddress, "203.0.113.9")
	}
}

func TestSessionGetByToken(t *testing.T) {
	ss := setupSessionTestDB(t)

	created, _ := ss.Create("15551234567", "", "", 7*24*time.Hour)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID {
		t.Errorf("id = %d, want %d", sess.ID, created.ID)
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	ss := setupSessionTestDB(t)

	sess, err := ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionGetByTokenReturnsExpired(t *testing.T) {
	ss := setupSessionTestDB(t)

	created, _ := ss.Create("15551234567", "", "", -time.Minute)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expired session must still be readable so expiry can be logged")
	}
	if !sess.ExpiresAt.Before(time.Now().UTC()) {
		t.Error("expected expiry in the past")
	}
}

func TestSessionDeleteByToken(t *testing.T) {
	ss := setupSessionTestDB(t)

	created, _ := ss.Create("15551234567", "", "", 7*24*time.Hour)

	if err := ss.DeleteByToken(created.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}

	// Revoking again is a no-op, not an error
	if err := ss.DeleteByToken(created.Token); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	ss := setupSessionTestDB(t)

	ss.Create("15551230001", "", "", -time.Minute)
	ss.Create("15551230002", "", "", 7*24*time.Hour)

	count, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted = %d, want 1", count)
	}
}

func TestSessionMultipleConcurrent(t *testing.T) {
	ss := setupSessionTestDB(t)

	first, _ := ss.Create("15551234567", "", "", 7*24*time.Hour)
	second, _ := ss.Create("15551234567", "", "", 7*24*time.Hour)

	if first.Token == second.Token {
		t.Fatal("expected distinct tokens")
	}
	for _, tok := range []string{first.Token, second.Token} {
		sess, err := ss.GetByToken(tok)
		if err != nil || sess == nil {
			t.Errorf("session %q should be valid", tok)
		}
	}
}
