package app

import "errors"

var (
	// ErrNotFound indicates the quit attempt does not exist for the caller.
	ErrNotFound = errors.New("quit attempt not found")
	// ErrMilestoneNotFound indicates the milestone does not exist for the caller.
	ErrMilestoneNotFound = errors.New("milestone not found")
	// ErrNotificationNotFound indicates the notification does not exist for the caller.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrValidation indicates input the procedure cannot act on.
	ErrValidation = errors.New("validation error")
	// ErrDatabase indicates a storage failure.
	ErrDatabase = errors.New("database error")
)
