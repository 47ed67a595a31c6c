// Package auth implements the authentication state machine: registration,
// password login, OTP second factor with lockout, and session lifecycle.
package auth

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/digisken/smsauth/internal/model"
	"github.com/digisken/smsauth/internal/sms"
	"github.com/digisken/smsauth/internal/store"
)

const (
	otpTTL          = 10 * time.Minute
	sessionTTL      = 7 * 24 * time.Hour
	maxOtpAttempts  = 5
	lockoutDuration = 15 * time.Minute
)

// Service orchestrates the credential, OTP and session stores. All store
// handles and the notifier binding are injected at construction; there is no
// package-level state.
type Service struct {
	users      *store.UserStore
	otps       *store.OtpStore
	sessions   *store.SessionStore
	notifier   sms.Notifier
	logger     *slog.Logger
	bcryptCost int
}

func NewService(
	us *store.UserStore,
	ot *store.OtpStore,
	ss *store.SessionStore,
	notifier sms.Notifier,
	bcryptCost int,
	logger *slog.Logger,
) *Service {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &Service{
		users:      us,
		otps:       ot,
		sessions:   ss,
		notifier:   notifier,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// LoginResult reports the outcome of the first authentication factor.
// SessionToken is set only when no second factor is pending.
type LoginResult struct {
	Requires2FA  bool
	SessionToken string
}

// Register creates an account for the phone number. 2FA is enabled by
// default for every new account. The password is bcrypt-hashed before it
// reaches storage; plaintext is never persisted or logged.
func (s *Service) Register(phoneNumber, password string) (*model.User, error) {
	if err := validatePhone(phoneNumber); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByPhone(phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(phoneNumber, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login performs first-factor authentication. Unknown phone numbers and
// wrong passwords produce the same ErrInvalidCredentials. With 2FA enabled
// an OTP is issued and dispatched and no session exists yet; with 2FA
// disabled a session is created immediately.
func (s *Service) Login(phoneNumber, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.GetByPhone(phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.TwoFAEnabled {
		if err := s.issueAndDispatch(phoneNumber); err != nil {
			return nil, err
		}
		return &LoginResult{Requires2FA: true}, nil
	}

	token, err := s.createSession(phoneNumber, ip, userAgent)
	if err != nil {
		return nil, err
	}
	return &LoginResult{SessionToken: token}, nil
}

// VerifyOTP checks the rate limit, then the code. A correct, unexpired,
// most-recently-issued code succeeds exactly once: the ledger record is
// deleted on success, so a replay fails. Any failed attempt is recorded
// before the error returns.
func (s *Service) VerifyOTP(phoneNumber, code, ip, userAgent string) (string, error) {
	rec, err := s.otps.Get(phoneNumber)
	if err != nil {
		return "", fmt.Errorf("get otp: %w", err)
	}

	if err := s.checkRateLimit(phoneNumber, rec); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	valid := rec != nil &&
		rec.OtpCode != "" &&
		rec.ExpiresAt != nil && rec.ExpiresAt.After(now) &&
		rec.OtpCode == code
	if !valid {
		if _, err := s.otps.IncrementAttempts(phoneNumber); err != nil {
			s.logger.Error("record failed otp attempt", "error", err)
		}
		return "", ErrInvalidOTP
	}

	// Single-use: deleting the record also resets the attempt history.
	if err := s.otps.Delete(phoneNumber); err != nil {
		return "", fmt.Errorf("consume otp: %w", err)
	}

	return s.createSession(phoneNumber, ip, userAgent)
}

// ResendOTP issues a fresh code, invalidating the previous one. The attempt
// counter and any lockout survive reissuance, so resending cannot be used to
// escape the rate limit.
func (s *Service) ResendOTP(phoneNumber string) error {
	return s.issueAndDispatch(phoneNumber)
}

// VerifySession returns the session for a valid token. Expired and unknown
// tokens are reported separately so callers can log the difference, though
// clients see the same unauthorized response either way.
func (s *Service) VerifySession(token string) (*model.Session, error) {
	sess, err := s.sessions.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.ExpiresAt.Before(time.Now().UTC()) {
		s.logger.Debug("rejected expired session", "phone_number", sess.PhoneNumber)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Logout revokes the session. Revoking an unknown token is a no-op.
func (s *Service) Logout(token string) error {
	if err := s.sessions.DeleteByToken(token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Cleanup lazily purges expired sessions and OTP records. Called
// periodically from main; correctness never depends on it.
func (s *Service) Cleanup() {
	if n, err := s.sessions.DeleteExpired(); err != nil {
		s.logger.Error("cleanup sessions", "error", err)
	} else if n > 0 {
		s.logger.Info("purged expired sessions", "count", n)
	}
	if n, err := s.otps.DeleteExpired(); err != nil {
		s.logger.Error("cleanup otps", "error", err)
	} else if n > 0 {
		s.logger.Info("purged expired otp records", "count", n)
	}
}

// checkRateLimit enforces the per-phone lockout. An active lock denies
// regardless of the remaining attempt count; hitting the attempt cap sets
// the lock.
func (s *Service) checkRateLimit(phoneNumber string, rec *model.OtpRecord) error {
	if rec == nil {
		return nil
	}
	now := time.Now().UTC()
	if rec.LockedUntil != nil && rec.LockedUntil.After(now) {
		return ErrRateLimited
	}
	if rec.AttemptCount >= maxOtpAttempts {
		if err := s.otps.Lock(phoneNumber, now.Add(lockoutDuration)); err != nil {
			s.logger.Error("set otp lock", "error", err)
		}
		return ErrRateLimited
	}
	return nil
}

func (s *Service) issueAndDispatch(phoneNumber string) error {
	// Opportunistic purge of stale records, per the lazy-expiry policy.
	if _, err := s.otps.DeleteExpired(); err != nil {
		s.logger.Error("purge expired otps", "error", err)
	}

	rec, err := s.otps.Issue(phoneNumber, otpTTL)
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}

	// Delivery failure is not fatal to the login flow: the code is issued
	// and the client is told to check their phone either way.
	if err := s.notifier.SendOTP(phoneNumber, rec.OtpCode); err != nil {
		s.logger.Error("dispatch otp", "phone_number", phoneNumber, "error", err)
	}
	return nil
}

func (s *Service) createSession(phoneNumber, ip, userAgent string) (string, error) {
	sess, err := s.sessions.Create(phoneNumber, ip, userAgent, sessionTTL)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	if err := s.users.TouchLogin(phoneNumber); err != nil {
		s.logger.Error("update last login", "phone_number", phoneNumber, "error", err)
	}
	return sess.Token, nil
}
