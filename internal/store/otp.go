package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/digisken/smsauth/internal/model"
)

type OtpStore struct {
	db *sql.DB
}

func NewOtpStore(db *sql.DB) *OtpStore {
	return &OtpStore{db: db}
}

func scanOtp(scanner interface{ Scan(...any) error }) (*model.OtpRecord, error) {
	var rec model.OtpRecord
	var expiresAt, lastAttempt, lockedUntil sql.NullTime

	err := scanner.Scan(
		&rec.PhoneNumber, &rec.OtpCode, &rec.CreatedAt,
		&expiresAt, &rec.AttemptCount, &lastAttempt, &lockedUntil,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		rec.ExpiresAt = &expiresAt.Time
	}
	if lastAttempt.Valid {
		rec.LastAttempt = &lastAttempt.Time
	}
	if lockedUntil.Valid {
		rec.LockedUntil = &lockedUntil.Time
	}
	return &rec, nil
}

const otpCols = `phone_number, otp_code, created_at, expires_at, attempt_count, last_attempt, locked_until`

// generateCode returns a 6-digit numeric code (100000-999999).
func generateCode() (string, error) {
	// Range: 100000 to 999999 (900000 values)
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := n.Int64() + 100000
	return fmt.Sprintf("%06d", code), nil
}

// Issue generates a new crypto-random 6-digit code for the phone number with
// the given TTL and stores it, replacing any prior code in place. The attempt
// counter and lock timestamp survive the replacement: re-issuing a code never
// clears a lockout.
func (s *OtpStore) Issue(phoneNumber string, ttl time.Duration) (*model.OtpRecord, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(ttl)

	_, err = s.db.Exec(
		`INSERT INTO otp_codes (phone_number, otp_code, created_at, expires_at)
		 VALUES (?, ?, datetime('now'), ?)
		 ON CONFLICT(phone_number) DO UPDATE SET
		   otp_code = excluded.otp_code,
		   created_at = excluded.created_at,
		   expires_at = excluded.expires_at`,
		phoneNumber, code, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert otp: %w", err)
	}
	return s.Get(phoneNumber)
}

// Get returns the ledger record for the phone number regardless of expiry,
// or nil if none exists. Expiry is the caller's concern: an expired code is
// unusable, but its attempt count and lock timestamp still matter.
func (s *OtpStore) Get(phoneNumber string) (*model.OtpRecord, error) {
	row := s.db.QueryRow(`SELECT `+otpCols+` FROM otp_codes WHERE phone_number = ?`, phoneNumber)
	rec, err := scanOtp(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	return rec, nil
}

// IncrementAttempts records a failed verification attempt, creating the
// ledger record with count 1 if none exists yet.
func (s *OtpStore) IncrementAttempts(phoneNumber string) (int, error) {
	_, err := s.db.Exec(
		`INSERT INTO otp_codes (phone_number, attempt_count, last_attempt)
		 VALUES (?, 1, datetime('now'))
		 ON CONFLICT(phone_number) DO UPDATE SET
		   attempt_count = attempt_count + 1,
		   last_attempt = excluded.last_attempt`,
		phoneNumber,
	)
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}

	var attempts int
	err = s.db.QueryRow(`SELECT attempt_count FROM otp_codes WHERE phone_number = ?`, phoneNumber).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("read attempts: %w", err)
	}
	return attempts, nil
}

// Lock blocks verification attempts for the phone number until the deadline.
func (s *OtpStore) Lock(phoneNumber string, until time.Time) error {
	_, err := s.db.Exec(
		`UPDATE otp_codes SET locked_until = ? WHERE phone_number = ?`,
		until.UTC(), phoneNumber,
	)
	if err != nil {
		return fmt.Errorf("lock otp: %w", err)
	}
	return nil
}

// Delete removes the ledger record, clearing the code, attempt count and any
// lock. Used after successful verification.
func (s *OtpStore) Delete(phoneNumber string) error {
	_, err := s.db.Exec(`DELETE FROM otp_codes WHERE phone_number = ?`, phoneNumber)
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// DeleteExpired removes records whose code expired and whose lock (if any)
// has elapsed. Records under an active lock are kept so the lockout holds.
func (s *OtpStore) DeleteExpired() (int64, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`DELETE FROM otp_codes
		 WHERE (expires_at IS NULL OR expires_at <= ?)
		   AND (locked_until IS NULL OR locked_until <= ?)`,
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// List returns all ledger records, newest first. Used by the operator tool.
func (s *OtpStore) List() ([]model.OtpRecord, error) {
	rows, err := s.db.Query(`SELECT ` + otpCols + ` FROM otp_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list otps: %w", err)
	}
	defer rows.Close()

	var recs []model.OtpRecord
	for rows.Next() {
		rec, err := scanOtp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan otp: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}
