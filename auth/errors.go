package auth

import "github.com/pkg/errors"

// Sentinel auth failures. Anything else coming out of this package is a
// backend failure and maps to the generic message.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrEmailInUse         = errors.New("an account with this email already exists")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrEmailNotConfirmed  = errors.New("please confirm your email before signing in")
)

// UserMessage maps an auth failure to the small fixed set of user-facing
// strings. Unknown errors collapse to a generic fallback so internal detail
// never reaches the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "Invalid email address"
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect email or password"
	case errors.Is(err, ErrEmailInUse):
		return "An account with this email already exists"
	case errors.Is(err, ErrWeakPassword):
		return "Password should be at least 6 characters"
	case errors.Is(err, ErrEmailNotConfirmed):
		return "Please confirm your email before signing in"
	default:
		return "An unexpected error occurred"
	}
}
