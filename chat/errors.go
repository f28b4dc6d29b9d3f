package chat

import "errors"

// Sentinel errors for coordinator operations.
var (
	// ErrNoActiveSession indicates a turn was submitted with no open
	// session buffer.
	ErrNoActiveSession = errors.New("no active session")
	// ErrNoModelSelected indicates a turn was submitted with no model
	// bound. The user-authored turn stays in the buffer so input is never
	// silently dropped.
	ErrNoModelSelected = errors.New("no model selected")
	// ErrGenerationInFlight indicates a turn was submitted while the
	// previous generation call was still streaming.
	ErrGenerationInFlight = errors.New("generation already in progress")
	// ErrInvalidRequest rejects a malformed surface request at the
	// boundary, before it reaches any state.
	ErrInvalidRequest = errors.New("invalid request")
)
