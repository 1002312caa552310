package wizard

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not legal in the
	// session's current state
	ErrInvalidTransition = errors.New("wizard: invalid state transition")

	// ErrSubmissionInFlight is returned when a confirm is attempted while a
	// previous one has not resolved
	ErrSubmissionInFlight = errors.New("wizard: submission already in flight")

	// ErrSessionNotFound is returned when no session matches the id
	ErrSessionNotFound = errors.New("wizard: session not found")
)
