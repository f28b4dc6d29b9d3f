package chat

import (
	"context"
	"fmt"

	"github.com/ollamate/core/surface"
)

// Request is a surface-originated command. The variant set is closed and
// validated at the boundary before touching coordinator state, replacing
// free-form string command dispatch.
type Request interface {
	isRequest()
}

// GetModel asks for the current selection to be re-broadcast.
type GetModel struct{}

func (GetModel) isRequest() {}

// SubmitTurn submits a user-authored turn to the active session.
type SubmitTurn struct {
	Text string
}

func (SubmitTurn) isRequest() {}

// StartSession opens a new session, flushing any active one first.
type StartSession struct{}

func (StartSession) isRequest() {}

// LoadSession replaces the active session with a stored one.
type LoadSession struct {
	ID string
}

func (LoadSession) isRequest() {}

// DeleteSession removes a stored session.
type DeleteSession struct {
	ID string
}

func (DeleteSession) isRequest() {}

// ClearDisplay asks all surfaces to discard their displayed conversation.
type ClearDisplay struct{}

func (ClearDisplay) isRequest() {}

// Handle validates and dispatches a surface request.
func (c *Coordinator) Handle(ctx context.Context, req Request) error {
	switch r := req.(type) {
	case GetModel:
		c.BroadcastModel(ctx)
		return nil
	case SubmitTurn:
		if r.Text == "" {
			return fmt.Errorf("%w: empty turn text", ErrInvalidRequest)
		}
		return c.Submit(ctx, r.Text)
	case StartSession:
		_, err := c.Start(ctx)
		return err
	case LoadSession:
		if r.ID == "" {
			return fmt.Errorf("%w: empty session id", ErrInvalidRequest)
		}
		return c.Load(ctx, r.ID)
	case DeleteSession:
		if r.ID == "" {
			return fmt.Errorf("%w: empty session id", ErrInvalidRequest)
		}
		return c.Delete(ctx, r.ID)
	case ClearDisplay:
		c.broadcaster.Broadcast(ctx, surface.DisplayCleared{})
		return nil
	default:
		return fmt.Errorf("%w: unknown request %T", ErrInvalidRequest, req)
	}
}
