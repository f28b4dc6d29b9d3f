package backend

import "errors"

// Sentinel errors for backend calls.
var (
	// ErrUnavailable indicates the backend could not be reached at all.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrBackend indicates the backend was reached but refused or failed
	// the request.
	ErrBackend = errors.New("backend error")
)
