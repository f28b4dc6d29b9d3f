// Package backend defines the text-generation contract and an Ollama HTTP
// client implementing it. A generation call returns a lazy stream of text
// fragments; cancellation is cooperative: callers stop consuming and close
// the stream.
package backend

import (
	"context"

	"github.com/ollamate/core/core/protocol"
)

// Stream is a lazy sequence of response fragments. Recv returns io.EOF
// when the backend has finished the turn.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Generator produces a streamed response for an ordered turn list.
type Generator interface {
	Generate(ctx context.Context, model string, turns []protocol.Turn) (Stream, error)
}
