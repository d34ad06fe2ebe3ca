package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicateKey reports whether err is a uniqueness violation.
func IsDuplicateKey(err error) bool { return errors.Is(err, ErrDuplicateKey) }

// IsUnauthorized reports whether err is a missing, invalid or expired credential.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
