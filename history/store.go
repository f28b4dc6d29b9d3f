package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ollamate/core/store"
)

// Versioned substrate key; bump on incompatible format changes.
const historyKey = "history/sessions_v1"

// Store is a bounded, deduplicating session store. Sessions are held in
// memory as the authoritative copy and mirrored to the substrate after each
// mutation; a substrate write failure is reported to the caller and logged
// but does not roll back the in-memory state.
type Store struct {
	kv     store.Store
	max    int
	logger *slog.Logger

	mu       sync.Mutex
	loaded   bool
	sessions []Session // kept sorted by Timestamp descending
}

// NewStore creates a Store over the given substrate. The existing
// collection, if any, is loaded lazily on first use.
func NewStore(kv store.Store, cfg *Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		max:    cfg.maxEntries(),
		logger: logger,
	}
}

// List returns every stored session sorted by timestamp descending.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	out := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out, nil
}

// GetByID returns a copy of the session with the given id, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return Session{}, err
	}

	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess.Clone(), nil
		}
	}
	return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Upsert inserts sess or replaces the stored session with the same id,
// then re-sorts by timestamp descending and truncates to the configured
// maximum, evicting the oldest entries first. Sessions with no id or no
// messages are rejected with ErrInvalidSession and the store is unchanged.
func (s *Store) Upsert(ctx context.Context, sess Session) error {
	if sess.ID == "" || len(sess.Messages) == 0 {
		return fmt.Errorf("%w: empty id or messages", ErrInvalidSession)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return err
	}

	sess = sess.Clone()

	replaced := false
	for i := range s.sessions {
		if s.sessions[i].ID == sess.ID {
			s.sessions[i] = sess
			replaced = true
			break
		}
	}
	if !replaced {
		s.sessions = append(s.sessions, sess)
	}

	sortByRecency(s.sessions)
	if len(s.sessions) > s.max {
		s.sessions = s.sessions[:s.max]
	}

	return s.persist(ctx)
}

// DeleteByID removes the session with the given id. Returns false without
// touching the substrate when the id is unknown.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return false, err
	}

	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return true, s.persist(ctx)
		}
	}
	return false, nil
}

// load populates the in-memory collection from the substrate once.
// Callers must hold s.mu.
func (s *Store) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	data, err := store.GetDefault(ctx, s.kv, historyKey, []byte("[]"))
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	var sessions []Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("failed to decode history: %w", err)
	}

	sortByRecency(sessions)
	s.sessions = sessions
	s.loaded = true
	return nil
}

// persist mirrors the in-memory collection to the substrate.
// Callers must hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := s.kv.Set(ctx, historyKey, data); err != nil {
		s.logger.WarnContext(ctx, "history write failed; in-memory state remains authoritative",
			slog.Int("sessions", len(s.sessions)),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.DebugContext(ctx, "history saved", slog.Int("sessions", len(s.sessions)))
	return nil
}

func sortByRecency(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp > sessions[j].Timestamp
	})
}
