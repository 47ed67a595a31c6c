package auth

import "errors"

// Failures the HTTP layer maps to status codes. Anything else coming out of
// the service is an infrastructure failure and reports as a 500.
var (
	// ErrPhoneRegistered means the phone number already has an account.
	ErrPhoneRegistered = errors.New("phone number already registered")
	// ErrInvalidCredentials covers both unknown phone and wrong password,
	// deliberately indistinguishable to prevent user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOTP means the code was wrong, expired, or never issued.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrRateLimited means OTP verification is locked out for this number.
	ErrRateLimited = errors.New("too many attempts")
	// ErrSessionNotFound and ErrSessionExpired both present as unauthorized
	// to the client but stay distinct for logging.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// ValidationError reports malformed registration input. The message is safe
// to show to the client and names the first violated rule.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErr(msg string) error {
	return &ValidationError{msg: msg}
}
