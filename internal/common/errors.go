package common

import "errors"

// Callers should match these values with errors.Is.
var (
	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service specific errors
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation error")
	ErrMonthClosed       = errors.New("month is closed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInactiveUser      = errors.New("user is inactive")

	// receipt specific errors
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")

	// auth errors (invalid or malformed token)
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
