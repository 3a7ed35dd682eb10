package service

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUserNotFound        = errors.New("user not found")
	ErrTokenNotFound       = errors.New("token not found")
	ErrTokenAlreadyUsed    = errors.New("token already used")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrAccountNotActivated = errors.New("account not activated")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordMismatch    = errors.New("the two password fields didn't match")
	ErrWeakPassword        = errors.New("weak password")
	ErrDuplicateEmail      = errors.New("email is already in use")
	ErrDuplicateUsername   = errors.New("username is already in use")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidUsername     = errors.New("enter a valid username: it must start with a letter and may contain only letters, numbers, and @/-/_ characters")
	ErrInvalidSession      = errors.New("invalid session")
)

// IsTokenError reports whether err came out of account link validation.
// Callers show one generic message for all of them.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenAlreadyUsed) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenInvalid)
}
