package model

import "errors"

// Common errors used across the application
var (
	// Object errors
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectExists   = errors.New("object id already exists")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// ErrValidation marks a missing or empty required field; wrap it with
	// context via fmt.Errorf("...: %w", model.ErrValidation)
	ErrValidation = errors.New("validation error")

	// ErrStorageBusy is surfaced when the store reports writer contention.
	// Mutations are retried with bounded backoff before callers see it.
	ErrStorageBusy = errors.New("storage busy")
)
