package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

var (
	ErrEmailInUse            = errors.New("email already in use")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailNotVerified      = errors.New("please verify your email before signing in")
	ErrNotFound              = errors.New("account not found")
	ErrStoreUnavailable      = errors.New("account store unavailable")
	ErrNotificationFailed    = errors.New("verification email could not be sent")

	// ErrDuplicateEmail is returned by a Repository when Create loses the
	// uniqueness race on email.
	ErrDuplicateEmail = errors.New("duplicate email")

	ErrInvalidSession     = errors.New("invalid session token")
	ErrMissingSigningKey  = errors.New("session signing key is empty")
	ErrEmptyPassword      = errors.New("password cannot be empty")
	ErrMalformedRequest   = errors.New("malformed request body")
	ErrMissingVerifyToken = errors.New("verification token is required")
)

// StoreError wraps an infrastructure failure from a Repository so that it
// matches ErrStoreUnavailable while keeping the cause.
func StoreError(op string, err error) error {
	return oops.Code("STORE_UNAVAILABLE").
		With("operation", op).
		Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
}

func notificationError(email string, err error) error {
	return oops.Code("NOTIFICATION_FAILED").
		With("operation", "send verification email").
		With("email", email).
		Wrap(fmt.Errorf("%w: %w", ErrNotificationFailed, err))
}
