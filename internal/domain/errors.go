package domain

import "errors"

// Domain errors
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("invalid authentication credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrGameNotFound       = errors.New("active game not found")
	ErrInvalidScore       = errors.New("score must be a non-negative integer")
	ErrInvalidMode        = errors.New("unknown game mode")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInternalError      = errors.New("internal server error")
)

// IsConflict reports whether an error is a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken)
}

// IsValidation reports whether an error comes from malformed input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidScore) || errors.Is(err, ErrInvalidMode) || errors.Is(err, ErrInvalidRequest)
}

// IsAuth reports whether an error should surface as 401. Bad passwords
// and unknown emails collapse into the same error so the login endpoint
// cannot be used to enumerate accounts.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInvalidCredentials)
}

// IsNotFound reports whether an error is a not-found type error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrGameNotFound)
}
