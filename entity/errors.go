package entity

import "errors"

// Token lifecycle error taxonomy. The first three collapse into one generic
// message at the HTTP boundary so callers cannot tell an unknown code from an
// expired or already used one; logs keep the specific variant.
var (
	ErrNotFound   = errors.New("not found")
	ErrExpired    = errors.New("expired")
	ErrConsumed   = errors.New("already consumed")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
)

// IsInvalidToken reports whether err is one of the variants that must be
// indistinguishable to external callers.
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) || errors.Is(err, ErrConsumed)
}
