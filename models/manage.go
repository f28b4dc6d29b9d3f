package models

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Sentinel errors for interactive management operations.
var (
	// ErrCancelled indicates the user dismissed a prompt without choosing.
	ErrCancelled = errors.New("cancelled")
	// ErrNoModels indicates an operation that needs a non-empty
	// availability set found none.
	ErrNoModels = errors.New("no models available")
)

// Prompter is the interactive picker/input contract. Implementations return
// ErrCancelled when the user dismisses the prompt.
type Prompter interface {
	// PickOne asks the user to choose one of options; current marks the
	// option that is currently in effect, if any.
	PickOne(ctx context.Context, title string, options []string, current string) (string, error)
	// Input asks the user for a free-form line, re-prompting until validate
	// accepts it.
	Input(ctx context.Context, prompt string, validate func(string) error) (string, error)
}

// Lister enumerates the models installed on a generation backend.
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Manager drives the interactive model-management operations against a
// StateStore.
type Manager struct {
	state    *StateStore
	prompter Prompter
}

// NewManager creates a Manager.
func NewManager(state *StateStore, prompter Prompter) *Manager {
	return &Manager{state: state, prompter: prompter}
}

// Select prompts for a model from the availability set and makes it the
// selection. Returns the chosen identifier.
func (m *Manager) Select(ctx context.Context) (string, error) {
	available := m.state.Available(ctx)
	if len(available) == 0 {
		return "", ErrNoModels
	}

	current, _ := m.state.Selected(ctx)
	choice, err := m.prompter.PickOne(ctx, "Select a Model", available, current)
	if err != nil {
		return "", err
	}
	return choice, m.state.SetSelected(ctx, choice)
}

// Add asks for a model name and appends it to the availability set. Blank
// names and duplicates are rejected at the prompt.
func (m *Manager) Add(ctx context.Context) (string, error) {
	available := m.state.Available(ctx)

	name, err := m.prompter.Input(ctx, "Model name (e.g. llama3:latest)", func(value string) error {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return fmt.Errorf("model name cannot be empty")
		}
		if slices.Contains(available, trimmed) {
			return fmt.Errorf("model %q already exists", trimmed)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	name = strings.TrimSpace(name)
	return name, m.state.SetAvailable(ctx, append(slices.Clone(available), name))
}

// Remove prompts for a model and removes it from the availability set.
// Removing the selected model clears the selection as a side effect of
// SetAvailable.
func (m *Manager) Remove(ctx context.Context) (string, error) {
	available := m.state.Available(ctx)
	if len(available) == 0 {
		return "", ErrNoModels
	}

	choice, err := m.prompter.PickOne(ctx, "Delete Model", available, "")
	if err != nil {
		return "", err
	}

	remaining := slices.DeleteFunc(slices.Clone(available), func(m string) bool {
		return m == choice
	})
	return choice, m.state.SetAvailable(ctx, remaining)
}

// Import fetches the backend's installed models and adds those not already
// in the availability set. Returns the number of imported models; zero with
// a nil error means there was nothing new.
func (m *Manager) Import(ctx context.Context, lister Lister) (int, error) {
	installed, err := lister.ListModels(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list backend models: %w", err)
	}
	if len(installed) == 0 {
		return 0, nil
	}

	available := m.state.Available(ctx)
	fresh := make([]string, 0, len(installed))
	for _, name := range installed {
		if !slices.Contains(available, name) {
			fresh = append(fresh, name)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	title := fmt.Sprintf("%d new model(s) found", len(fresh))
	choice, err := m.prompter.PickOne(ctx, title, []string{"Import All", "Cancel"}, "")
	if err != nil {
		return 0, err
	}
	if choice != "Import All" {
		return 0, ErrCancelled
	}

	return len(fresh), m.state.SetAvailable(ctx, append(slices.Clone(available), fresh...))
}
