// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidRange  = errors.New("invalid line range")
	ErrInvalidTitle  = errors.New("invalid note title")
	ErrUnknownMode   = errors.New("unknown replace mode")
)
