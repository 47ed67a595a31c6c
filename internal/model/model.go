package model

import "time"

type User struct {
	ID           int64      `json:"id"`
	PhoneNumber  string     `json:"phone_number"`
	PasswordHash string     `json:"-"`
	TwoFAEnabled bool       `json:"two_fa_enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

// OtpRecord is the per-phone-number OTP ledger row. At most one record exists
// per phone number; issuing a new code replaces the old one in place while
// attempt_count and locked_until survive until an explicit reset.
type OtpRecord struct {
	PhoneNumber  string     `json:"phone_number"`
	OtpCode      string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
	AttemptCount int        `json:"attempt_count"`
	LastAttempt  *time.Time `json:"last_attempt"`
	LockedUntil  *time.Time `json:"locked_until"`
}

type Session struct {
	ID          int64     `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Token       string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
}
