package history

import "errors"

// Sentinel errors for history operations.
var (
	// ErrInvalidSession rejects an upsert of a session with no id or no
	// messages. The store is left unchanged.
	ErrInvalidSession = errors.New("invalid session")
	// ErrNotFound indicates the requested session id is not in the store.
	ErrNotFound = errors.New("session not found")
)
