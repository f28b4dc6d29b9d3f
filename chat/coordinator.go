// Package chat implements the session lifecycle coordinator: it owns the
// single in-memory session buffer, decides when the buffer is flushed into
// history and when a new one begins, and reconciles session identity with
// model changes.
//
// The coordinator initializes from configuration via New, creating all
// subsystems internally. Functional options allow overrides of any
// subsystem.
//
//	c, err := chat.New(&cfg)
//	if err := c.Handle(ctx, chat.StartSession{}); err != nil { ... }
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ollamate/core/backend"
	"github.com/ollamate/core/core/protocol"
	"github.com/ollamate/core/history"
	"github.com/ollamate/core/models"
	"github.com/ollamate/core/store"
	"github.com/ollamate/core/surface"
)

// Recorded when a session is flushed without ever having a model bound.
const unknownModel = "Unknown"

// buffer is the single mutable active session. It is created on start,
// mutated by incoming turns, and destroyed on flush.
type buffer struct {
	id        string
	timestamp int64
	model     string // bound lazily on the first real turn
	turns     []protocol.Turn
}

// pendingOp records what to do once an in-flight generation settles.
type pendingOp int

const (
	pendingNone pendingOp = iota
	pendingClose
	pendingRebind // model changed mid-stream; flush then start fresh
	pendingLoad
)

// Option overrides a config-created subsystem after initialization.
type Option func(*Coordinator)

// WithStore overrides the config-created substrate.
func WithStore(kv store.Store) Option {
	return func(c *Coordinator) { c.kv = kv }
}

// WithHistory overrides the config-created history store.
func WithHistory(h *history.Store) Option {
	return func(c *Coordinator) { c.history = h }
}

// WithModelState overrides the config-created model state store.
func WithModelState(m *models.StateStore) Option {
	return func(c *Coordinator) { c.models = m }
}

// WithGenerator overrides the config-created generation backend.
func WithGenerator(g backend.Generator) Option {
	return func(c *Coordinator) { c.generator = g }
}

// WithBroadcaster overrides the default broadcaster.
func WithBroadcaster(b *surface.Broadcaster) Option {
	return func(c *Coordinator) { c.broadcaster = b }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithClock overrides the time source used for session ids.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator owns the active session buffer and wires the model state
// store, history store, generation backend, and broadcaster together.
type Coordinator struct {
	kv          store.Store
	models      *models.StateStore
	history     *history.Store
	generator   backend.Generator
	broadcaster *surface.Broadcaster
	logger      *slog.Logger

	systemPrompt string
	defaultModel string
	now          func() time.Time

	mu           sync.Mutex
	active       *buffer
	streaming    bool
	pending      pendingOp
	pendingModel string
	pendingLoad  string
}

// New creates a Coordinator from configuration. Subsystems are initialized
// from their respective config sections; functional options applied after
// initialization can override any of them.
func New(cfg *Config, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		systemPrompt: cfg.SystemPrompt,
		defaultModel: cfg.DefaultModel,
		logger:       slog.Default(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.kv == nil {
		kv, err := store.New(&cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
		c.kv = kv
	}
	if c.history == nil {
		c.history = history.NewStore(c.kv, &cfg.History, c.logger)
	}
	if c.models == nil {
		c.models = models.NewStateStore(c.kv, c.logger)
	}
	if c.generator == nil {
		c.generator = backend.NewClient(&cfg.Backend, c.logger)
	}
	if c.broadcaster == nil {
		c.broadcaster = surface.NewBroadcaster(c.logger)
	}

	c.models.Subscribe(c)

	if err := c.models.Reconcile(context.Background()); err != nil {
		c.logger.Warn("model state reconciliation failed", slog.String("error", err.Error()))
	}

	return c, nil
}

// Models returns the coordinator's model state store.
func (c *Coordinator) Models() *models.StateStore { return c.models }

// History returns the coordinator's history store.
func (c *Coordinator) History() *history.Store { return c.history }

// Broadcaster returns the coordinator's surface broadcaster.
func (c *Coordinator) Broadcaster() *surface.Broadcaster { return c.broadcaster }

// ActiveID returns the active session id, or false when no session is open.
func (c *Coordinator) ActiveID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.id, true
}

// Start opens a new session, flushing any active one first, and returns
// the new session id. The provisional model is the current selection,
// falling back to the configured default, then the first available model.
func (c *Coordinator) Start(ctx context.Context) (string, error) {
	selected, _ := c.models.Selected(ctx)
	model := selected
	if model == "" {
		model = c.defaultModel
	}
	if model == "" {
		if available := c.models.Available(ctx); len(available) > 0 {
			model = available[0]
		}
	}

	c.mu.Lock()
	if err := c.flushLocked(ctx); err != nil {
		c.logger.WarnContext(ctx, "failed to flush previous session", slog.String("error", err.Error()))
	}
	id := c.startLocked(model)
	c.mu.Unlock()

	c.broadcaster.Broadcast(ctx, surface.DisplayCleared{})
	c.broadcaster.Broadcast(ctx, surface.ModelUpdated{Model: selected})
	return id, nil
}

// Submit appends a user turn to the active session, sends the full ordered
// turn list to the backend, and appends the accumulated streamed response
// as an assistant turn once the stream settles.
//
// If the buffer is empty at submission time the session's model binding is
// decided now, from the current selection, so that creation can happen
// before a model is chosen. Backend failures are surfaced to the attached
// surfaces as inline error text rather than returned.
func (c *Coordinator) Submit(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.streaming {
		c.mu.Unlock()
		return ErrGenerationInFlight
	}

	selected, selectedOK := c.models.Selected(ctx)

	firstTurn := len(c.active.turns) == 0
	if !selectedOK {
		// Keep the user's input: append before reporting the error.
		c.active.turns = append(c.active.turns, protocol.NewTurn(protocol.RoleUser, text))
		c.mu.Unlock()
		return ErrNoModelSelected
	}

	model := c.active.model
	if model == "" {
		model = selected
		c.active.model = model
		c.logger.DebugContext(ctx, "session model bound",
			slog.String("session_id", c.active.id),
			slog.String("model", model),
		)
	}

	outbound := make([]protocol.Turn, 0, len(c.active.turns)+2)
	if firstTurn && c.systemPrompt != "" {
		outbound = append(outbound, protocol.NewTurn(protocol.RoleSystem, c.systemPrompt))
	}
	outbound = append(outbound, c.active.turns...)
	outbound = append(outbound, protocol.NewTurn(protocol.RoleUser, text))

	c.active.turns = append(c.active.turns, protocol.NewTurn(protocol.RoleUser, text))
	sessionID := c.active.id
	c.streaming = true
	c.mu.Unlock()

	c.broadcaster.Broadcast(ctx, surface.ThinkingChanged{Thinking: true})

	stream, err := c.generator.Generate(ctx, model, outbound)
	if err != nil {
		c.surfaceError(ctx, err)
		c.settle(ctx, sessionID, "")
		return nil
	}
	defer stream.Close()

	var full string
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.surfaceError(ctx, err)
			}
			break
		}
		if chunk == "" {
			continue
		}

		c.mu.Lock()
		valid := c.active != nil && c.active.id == sessionID
		stop := c.pending == pendingClose || c.pending == pendingLoad
		c.mu.Unlock()

		if !valid || stop {
			// Stop consuming; output already delivered stays on the
			// surfaces and the partial text remains flushable.
			break
		}

		c.broadcaster.Broadcast(ctx, surface.ResponseChunk{Text: chunk, First: full == ""})
		full += chunk

		if ctx.Err() != nil {
			break
		}
	}

	c.settle(ctx, sessionID, full)
	return nil
}

// settle finishes a generation exchange: it appends the accumulated text
// as an assistant turn when the session is still the same one the exchange
// started for, then performs whatever operation was deferred while the
// stream was in flight.
func (c *Coordinator) settle(ctx context.Context, sessionID, full string) {
	c.mu.Lock()
	c.streaming = false

	if full != "" && c.active != nil && c.active.id == sessionID {
		c.active.turns = append(c.active.turns, protocol.NewTurn(protocol.RoleAssistant, full))
	}

	op := c.pending
	model := c.pendingModel
	loadID := c.pendingLoad
	c.pending = pendingNone
	c.pendingModel = ""
	c.pendingLoad = ""

	switch op {
	case pendingNone:
		c.mu.Unlock()
	case pendingClose:
		if err := c.flushLocked(ctx); err != nil {
			c.logger.WarnContext(ctx, "failed to flush session", slog.String("error", err.Error()))
		}
		c.mu.Unlock()
	case pendingRebind:
		if err := c.flushLocked(ctx); err != nil {
			c.logger.WarnContext(ctx, "failed to flush session", slog.String("error", err.Error()))
		}
		c.startLocked(model)
		c.mu.Unlock()
		c.broadcaster.Broadcast(ctx, surface.DisplayCleared{})
		c.broadcaster.Broadcast(ctx, surface.ModelUpdated{Model: model})
	case pendingLoad:
		if err := c.flushLocked(ctx); err != nil {
			c.logger.WarnContext(ctx, "failed to flush session", slog.String("error", err.Error()))
		}
		c.mu.Unlock()
		if err := c.Load(ctx, loadID); err != nil {
			c.logger.WarnContext(ctx, "deferred session load failed",
				slog.String("session_id", loadID),
				slog.String("error", err.Error()),
			)
		}
	}

	c.broadcaster.Broadcast(ctx, surface.ThinkingChanged{Thinking: false})
}

// Load replaces the active session with a stored one. An active session
// with a different id is flushed first; if a generation call is in flight
// the load is deferred until the exchange settles.
func (c *Coordinator) Load(ctx context.Context, id string) error {
	sess, err := c.history.GetByID(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.streaming {
		c.pending = pendingLoad
		c.pendingLoad = id
		c.mu.Unlock()
		return nil
	}
	if c.active != nil && c.active.id != id {
		if err := c.flushLocked(ctx); err != nil {
			c.logger.WarnContext(ctx, "failed to flush session", slog.String("error", err.Error()))
		}
	}
	c.active = &buffer{
		id:        sess.ID,
		timestamp: sess.Timestamp,
		model:     sess.ModelUsed,
		turns:     protocol.CloneTurns(sess.Messages),
	}
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "session loaded",
		slog.String("session_id", sess.ID),
		slog.String("model", sess.ModelUsed),
	)
	c.broadcaster.Broadcast(ctx, surface.SessionLoaded{
		Messages: protocol.CloneTurns(sess.Messages),
		Model:    sess.ModelUsed,
	})
	return nil
}

// Delete removes a stored session. Deleting the id of the active buffer
// also discards the buffer and clears the display, whether or not the id
// was ever persisted.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	deleted, err := c.history.DeleteByID(ctx, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	wasActive := c.active != nil && c.active.id == id
	if wasActive {
		c.active = nil
	}
	c.mu.Unlock()

	if wasActive {
		selected, _ := c.models.Selected(ctx)
		c.broadcaster.Broadcast(ctx, surface.DisplayCleared{})
		c.broadcaster.Broadcast(ctx, surface.ModelUpdated{Model: selected})
	}

	if !deleted && !wasActive {
		return fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}

	c.logger.InfoContext(ctx, "session deleted", slog.String("session_id", id))
	return nil
}

// Close flushes the active session, if any, and discards the buffer. With
// a generation in flight the flush is deferred until the exchange settles;
// the drain loop stops consuming at the next fragment.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return nil
	}
	if c.streaming {
		c.pending = pendingClose
		return nil
	}
	return c.flushLocked(ctx)
}

// BroadcastModel re-broadcasts the current selection to all surfaces.
func (c *Coordinator) BroadcastModel(ctx context.Context) {
	selected, _ := c.models.Selected(ctx)
	c.broadcaster.Broadcast(ctx, surface.ModelUpdated{Model: selected})
}

// OnModelEvent implements models.Observer. A model change while a non-empty
// session is active flushes it and starts a fresh one; with a generation in
// flight the exchange is allowed to complete first so the response the user
// is waiting on is not lost.
func (c *Coordinator) OnModelEvent(ctx context.Context, event models.Event) {
	switch e := event.(type) {
	case models.ModelChanged:
		c.mu.Lock()
		if c.active == nil || c.active.model == e.Model {
			c.mu.Unlock()
			c.broadcaster.Broadcast(ctx, surface.ModelUpdated{Model: e.Model})
			return
		}
		if c.streaming {
			c.pending = pendingRebind
			c.pendingModel = e.Model
			c.mu.Unlock()
			return
		}
		if err := c.flushLocked(ctx); err != nil {
			c.logger.WarnContext(ctx, "failed to flush session", slog.String("error", err.Error()))
		}
		c.startLocked(e.Model)
		c.mu.Unlock()

		c.broadcaster.Broadcast(ctx, surface.DisplayCleared{})
		c.broadcaster.Broadcast(ctx, surface.ModelUpdated{Model: e.Model})
	case models.ListChanged:
		c.logger.DebugContext(ctx, "available models changed", slog.Int("count", len(e.Models)))
	}
}

// startLocked creates a fresh buffer with a time-derived identity.
// Callers must hold c.mu.
func (c *Coordinator) startLocked(model string) string {
	now := c.now()
	c.active = &buffer{
		id:        history.NewID(now),
		timestamp: now.UnixMilli(),
		model:     model,
	}
	c.logger.Debug("session started",
		slog.String("session_id", c.active.id),
		slog.String("model", orUnknown(model)),
	)
	return c.active.id
}

// flushLocked persists the active buffer into history and discards it.
// A buffer with no turns is discarded without persisting. Callers must
// hold c.mu.
func (c *Coordinator) flushLocked(ctx context.Context) error {
	if c.active == nil {
		return nil
	}

	buf := c.active
	c.active = nil

	if len(buf.turns) == 0 {
		return nil
	}

	sess := history.Session{
		ID:        buf.id,
		Name:      history.Summarize(buf.turns),
		Timestamp: buf.timestamp,
		ModelUsed: orUnknown(buf.model),
		Messages:  protocol.CloneTurns(buf.turns),
	}
	if err := c.history.Upsert(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session %s: %w", buf.id, err)
	}

	c.logger.InfoContext(ctx, "session flushed",
		slog.String("session_id", buf.id),
		slog.Int("turns", len(buf.turns)),
		slog.String("model", orUnknown(buf.model)),
	)
	return nil
}

// surfaceError delivers a backend failure as inline error text rather than
// raising it to the presentation layer. The user's turn stays in the
// buffer.
func (c *Coordinator) surfaceError(ctx context.Context, err error) {
	c.logger.WarnContext(ctx, "generation failed", slog.String("error", err.Error()))
	c.broadcaster.Broadcast(ctx, surface.ResponseChunk{
		Text:  "\nError: " + err.Error(),
		First: true,
	})
}

func orUnknown(model string) string {
	if model == "" {
		return unknownModel
	}
	return model
}
