package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoCapacity      = errors.New("all accounts exhausted their daily limit")
	ErrBusy            = errors.New("another operation is already running")
	ErrNothingDue      = errors.New("no day batch is due today")
	ErrSessionFailed   = errors.New("account session could not be established")
	ErrTooManyPrompts  = errors.New("prompt list exceeds the allowed maximum")
)
