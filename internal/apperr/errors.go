// Package apperr holds sentinel errors shared across services and mapped to
// status codes at the API boundary.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrNoSelection   = errors.New("nothing selected")
	ErrInvalidName   = errors.New("invalid name")
	ErrNotConfigured = errors.New("feature not configured")
)
