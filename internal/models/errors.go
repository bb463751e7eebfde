package models

import "errors"

// Core failure taxonomy. Operations return one of these (usually wrapped with
// detail via fmt.Errorf and %w) or succeed; no state-changing failure is
// swallowed. pkg/response maps each kind to an HTTP status.
var (
	// ErrValidation marks malformed input; not retryable without fixing the input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown study, slot or reservation id.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an actor lacking the required role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition marks a state machine precondition failure.
	ErrInvalidTransition = errors.New("invalid transition")

	// Booking-path outcomes.
	ErrSlotFull       = errors.New("slot full")
	ErrAlreadyBooked  = errors.New("already booked")
	ErrStudyNotActive = errors.New("study not active")

	// ErrCollaboratorUnavailable marks a failed call to the account directory
	// or recommendation service. Core state is never affected.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)
