package app

import "errors"

var (
	// ErrValidation wraps a *validation.Error describing bad input.
	ErrValidation = errors.New("validation error")
	// ErrEmailTaken is returned by Signup for an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound is returned when the caller's profile no longer exists.
	ErrNotFound = errors.New("user not found")
	// ErrDatabase indicates a storage failure.
	ErrDatabase = errors.New("database error")
)
