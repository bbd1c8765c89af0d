package app

import "errors"

var (
	// ErrNotFound indicates the quit attempt does not exist for the caller.
	ErrNotFound = errors.New("quit attempt not found")
	// ErrValidation indicates input the procedure cannot act on.
	ErrValidation = errors.New("validation error")
	// ErrDatabase indicates a storage failure.
	ErrDatabase = errors.New("database error")
)
