// Package models is the single source of truth for the selected model and
// the set of available models. Selection and availability never diverge:
// whenever the availability set stops containing the selection, the
// selection is cleared eagerly and subscribers are notified.
package models

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/ollamate/core/store"
)

// Versioned substrate keys.
const (
	selectedKey  = "models/selected_v1"
	availableKey = "models/available_v1"
)

// Stored sentinel meaning "no selection". Normalized to the empty string on
// read so callers never see it.
const noModelSentinel = "No Model"

// StateStore holds the selected model identifier and the availability set,
// persisted through the substrate and cached in memory as the authoritative
// copy for the process lifetime.
type StateStore struct {
	kv     store.Store
	logger *slog.Logger

	mu        sync.Mutex
	loaded    bool
	selected  string
	available []string
	observers []Observer
}

// NewStateStore creates a StateStore over the given substrate.
func NewStateStore(kv store.Store, logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{kv: kv, logger: logger}
}

// Subscribe registers an observer for subsequent state changes.
func (s *StateStore) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Selected returns the currently selected model identifier, or false when
// no model is selected.
func (s *StateStore) Selected(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load(ctx)
	return s.selected, s.selected != ""
}

// Available returns a copy of the availability set.
func (s *StateStore) Available(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load(ctx)
	return slices.Clone(s.available)
}

// SetSelected persists a new selection; an empty model clears it. A change
// emits ModelChanged; setting the current value again emits nothing.
// A substrate write failure is returned but the in-memory state keeps the
// new value.
func (s *StateStore) SetSelected(ctx context.Context, model string) error {
	s.mu.Lock()
	s.load(ctx)

	previous := s.selected
	if previous == model {
		s.mu.Unlock()
		return nil
	}

	s.selected = model
	err := s.persistSelected(ctx)
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "model selection changed",
		slog.String("from", orNone(previous)),
		slog.String("to", orNone(model)),
	)
	for _, o := range observers {
		o.OnModelEvent(ctx, ModelChanged{Model: model})
	}
	return err
}

// SetAvailable normalizes models (drops blank entries, de-duplicates,
// sorts) and persists the result when it differs from the current set,
// emitting ListChanged. If the current selection is not in the new set the
// selection is cleared as a cascading side effect, which emits its own
// ModelChanged.
func (s *StateStore) SetAvailable(ctx context.Context, models []string) error {
	normalized := Normalize(models)

	s.mu.Lock()
	s.load(ctx)

	if slices.Equal(s.available, normalized) {
		s.mu.Unlock()
		return nil
	}

	s.available = normalized
	err := s.persistAvailable(ctx)
	selectionStale := s.selected != "" && !slices.Contains(normalized, s.selected)
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "available models changed", slog.Int("count", len(normalized)))
	for _, o := range observers {
		o.OnModelEvent(ctx, ListChanged{Models: slices.Clone(normalized)})
	}

	if selectionStale {
		s.logger.InfoContext(ctx, "selected model no longer available, clearing selection")
		if clearErr := s.SetSelected(ctx, ""); err == nil {
			err = clearErr
		}
	}
	return err
}

// Reconcile re-validates persisted state on startup: a selection that is
// not in the availability set is cleared, notifying subscribers.
func (s *StateStore) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	s.load(ctx)
	selected := s.selected
	stale := selected != "" && !slices.Contains(s.available, selected)
	s.mu.Unlock()

	if !stale {
		return nil
	}
	s.logger.WarnContext(ctx, "persisted selection missing from available models",
		slog.String("model", selected),
	)
	return s.SetSelected(ctx, "")
}

// Normalize de-duplicates models, drops blank and whitespace-only entries,
// and sorts the remainder. Comparison is case-sensitive.
func Normalize(models []string) []string {
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if strings.TrimSpace(m) == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// load populates the cache from the substrate once. Read failures are
// logged and leave the cache empty; the process continues with in-memory
// state. Callers must hold s.mu.
func (s *StateStore) load(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	raw, err := store.GetDefault(ctx, s.kv, selectedKey, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load selected model", slog.String("error", err.Error()))
	} else if selected := string(raw); selected != "" && selected != noModelSentinel {
		s.selected = selected
	}

	raw, err = store.GetDefault(ctx, s.kv, availableKey, []byte("[]"))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load available models", slog.String("error", err.Error()))
		return
	}
	var available []string
	if err := json.Unmarshal(raw, &available); err != nil {
		s.logger.WarnContext(ctx, "failed to decode available models", slog.String("error", err.Error()))
		return
	}
	s.available = Normalize(available)
}

func (s *StateStore) persistSelected(ctx context.Context) error {
	value := s.selected
	if value == "" {
		value = noModelSentinel
	}
	if err := s.kv.Set(ctx, selectedKey, []byte(value)); err != nil {
		s.logger.WarnContext(ctx, "selected model write failed", slog.String("error", err.Error()))
		return fmt.Errorf("failed to persist selection: %w", err)
	}
	return nil
}

func (s *StateStore) persistAvailable(ctx context.Context) error {
	data, err := json.Marshal(s.available)
	if err != nil {
		return fmt.Errorf("failed to encode available models: %w", err)
	}
	if err := s.kv.Set(ctx, availableKey, data); err != nil {
		s.logger.WarnContext(ctx, "available models write failed", slog.String("error", err.Error()))
		return fmt.Errorf("failed to persist available models: %w", err)
	}
	return nil
}

func orNone(model string) string {
	if model == "" {
		return "none"
	}
	return model
}
