package surface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Surface is a presentation consumer. Deliver must not block on other
// surfaces; a non-nil error marks this delivery as failed without
// consequence for the broadcast as a whole.
type Surface interface {
	Deliver(ctx context.Context, event Event) error
}

// Broadcaster delivers events to every attached surface independently.
// A delivery failure (surface gone, channel closed) is logged and otherwise
// ignored — Broadcast never fails because one target failed.
type Broadcaster struct {
	logger *slog.Logger

	mu       sync.RWMutex
	surfaces map[string]Surface
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		logger:   logger,
		surfaces: make(map[string]Surface),
	}
}

// Attach registers a delivery target and returns its registration id.
func (b *Broadcaster) Attach(s Surface) string {
	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.surfaces[id] = s

	b.logger.Debug("surface attached", slog.String("surface_id", id))
	return id
}

// Detach unregisters a delivery target. Unknown ids are ignored.
func (b *Broadcaster) Detach(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.surfaces[id]; !exists {
		return
	}
	delete(b.surfaces, id)
	b.logger.Debug("surface detached", slog.String("surface_id", id))
}

// Count returns the number of attached surfaces.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.surfaces)
}

// Broadcast delivers event to every currently attached surface.
func (b *Broadcaster) Broadcast(ctx context.Context, event Event) {
	b.mu.RLock()
	targets := make(map[string]Surface, len(b.surfaces))
	for id, s := range b.surfaces {
		targets[id] = s
	}
	b.mu.RUnlock()

	for id, s := range targets {
		if err := b.deliver(ctx, s, event); err != nil {
			b.logger.Warn("surface delivery failed",
				slog.String("surface_id", id),
				slog.String("event", fmt.Sprintf("%T", event)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (b *Broadcaster) deliver(ctx context.Context, s Surface, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Deliver(ctx, event)
}
