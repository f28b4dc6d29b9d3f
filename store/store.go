// Package store provides the persistent key-value substrate used for model
// state and chat history. Keys are /-separated hierarchical paths and values
// are raw bytes; interpretation of the bytes belongs to the caller.
package store

import "context"

// Store translates between external storage and the key-value namespace.
// Implementations are stateless — they perform I/O on each call without
// caching — and must be safe for concurrent use.
type Store interface {
	// Get retrieves the value for key. Returns ErrKeyNotFound when the key
	// has never been written.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set persists value under key, creating or overwriting as needed.
	// The write is complete (durable from the caller's perspective) when
	// Set returns nil.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key from storage. Missing keys are ignored.
	Delete(ctx context.Context, key string) error
}

// GetDefault retrieves the value for key, returning fallback when the key
// is absent. Any other error is returned unchanged.
func GetDefault(ctx context.Context, s Store, key string, fallback []byte) ([]byte, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		if IsNotFound(err) {
			return fallback, nil
		}
		return nil, err
	}
	return value, nil
}
