package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
