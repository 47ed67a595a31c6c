package store

import (
	"database/sql"
	"fmt"

	"github.com/digisken/smsauth/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var lastLogin sql.NullTime

	err := scanner.Scan(&u.ID, &u.PhoneNumber, &u.PasswordHash, &u.TwoFAEnabled, &u.CreatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}

	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

const userCols = `id, phone_number, password_hash, two_fa_enabled, created_at, last_login`

// Create inserts a new user. The password hash must already be computed;
// plaintext never reaches this layer. 2FA is on by default for new accounts.
func (s *UserStore) Create(phoneNumber, passwordHash string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (phone_number, password_hash, two_fa_enabled) VALUES (?, ?, 1)`,
		phoneNumber, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *UserStore) GetByPhone(phoneNumber string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE phone_number = ?`, phoneNumber)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return u, nil
}

// TouchLogin updates the last-login timestamp.
func (s *UserStore) TouchLogin(phoneNumber string) error {
	_, err := s.db.Exec(
		`UPDATE users SET last_login = datetime('now') WHERE phone_number = ?`,
		phoneNumber,
	)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return nil
}

// List returns all users, newest first. Used by the operator tool.
func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
