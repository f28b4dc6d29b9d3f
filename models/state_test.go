package models_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/ollamate/core/models"
	"github.com/ollamate/core/store"
)

// recorder collects every event it observes.
type recorder struct {
	events []models.Event
}

func (r *recorder) OnModelEvent(_ context.Context, event models.Event) {
	r.events = append(r.events, event)
}

func TestStateStore_SelectedEmptyByDefault(t *testing.T) {
	ctx := context.Background()
	s := models.NewStateStore(store.NewMemStore(), nil)

	selected, ok := s.Selected(ctx)
	if ok || selected != "" {
		t.Errorf("Selected() = (%q, %v), want (\"\", false)", selected, ok)
	}
}

func TestStateStore_SetSelected(t *testing.T) {
	ctx := context.Background()
	s := models.NewStateStore(store.NewMemStore(), nil)
	rec := &recorder{}
	s.Subscribe(rec)

	if err := s.SetSelected(ctx, "llama3"); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}

	selected, ok := s.Selected(ctx)
	if !ok || selected != "llama3" {
		t.Errorf("Selected() = (%q, %v), want (%q, true)", selected, ok, "llama3")
	}
	if len(rec.events) != 1 {
		t.Fatalf("got %d events, want 1", len(rec.events))
	}
	if got := rec.events[0].(models.ModelChanged); got.Model != "llama3" {
		t.Errorf("ModelChanged.Model = %q, want %q", got.Model, "llama3")
	}
}

func TestStateStore_SetSelectedSameValueEmitsNothing(t *testing.T) {
	ctx := context.Background()
	s := models.NewStateStore(store.NewMemStore(), nil)

	if err := s.SetSelected(ctx, "llama3"); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}

	rec := &recorder{}
	s.Subscribe(rec)
	if err := s.SetSelected(ctx, "llama3"); err != nil {
		t.Fatalf("SetSelected again: %v", err)
	}
	if len(rec.events) != 0 {
		t.Errorf("re-selecting the current model emitted %d event(s)", len(rec.events))
	}
}

func TestStateStore_ClearSelection(t *testing.T) {
	ctx := context.Background()
	s := models.NewStateStore(store.NewMemStore(), nil)

	if err := s.SetSelected(ctx, "llama3"); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}
	if err := s.SetSelected(ctx, ""); err != nil {
		t.Fatalf("SetSelected clear: %v", err)
	}

	selected, ok := s.Selected(ctx)
	if ok || selected != "" {
		t.Errorf("Selected() after clear = (%q, %v), want (\"\", false)", selected, ok)
	}
}

func TestStateStore_SentinelNeverLeaks(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemStore()

	first := models.NewStateStore(kv, nil)
	if err := first.SetSelected(ctx, ""); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}

	// A cleared selection is persisted as a sentinel; a fresh store reading
	// it back must still report "no selection".
	second := models.NewStateStore(kv, nil)
	selected, ok := second.Selected(ctx)
	if ok || selected != "" {
		t.Errorf("Selected() = (%q, %v), want (\"\", false)", selected, ok)
	}
}

func TestStateStore_SetAvailableNormalizes(t *testing.T) {
	ctx := context.Background()
	s := models.NewStateStore(store.NewMemStore(), nil)

	err := s.SetAvailable(ctx, []string{"mistral", "llama3", "", "   ", "mistral"})
	if err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}

	want := []string{"llama3", "mistral"}
	if got := s.Available(ctx); !reflect.DeepEqual(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestStateStore_SetAvailableSameSetEmitsNothing(t *testing.T) {
	ctx := context.Background()
	s := models.NewStateStore(store.NewMemStore(), nil)

	if err := s.SetAvailable(ctx, []string{"llama3", "mistral"}); err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}

	rec := &recorder{}
	s.Subscribe(rec)
	if err := s.SetAvailable(ctx, []string{"mistral", "llama3", "mistral"}); err != nil {
		t.Fatalf("SetAvailable again: %v", err)
	}
	if len(rec.events) != 0 {
		t.Errorf("setting an equivalent list emitted %d event(s)", len(rec.events))
	}
}

func TestStateStore_RemovingSelectedCascadesClear(t *testing.T) {
	ctx := context.Background()
	s := models.NewStateStore(store.NewMemStore(), nil)

	if err := s.SetAvailable(ctx, []string{"llama3", "mistral"}); err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}
	if err := s.SetSelected(ctx, "llama3"); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}

	rec := &recorder{}
	s.Subscribe(rec)
	if err := s.SetAvailable(ctx, []string{"mistral"}); err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}

	if selected, ok := s.Selected(ctx); ok {
		t.Errorf("selection %q survived removal from the availability set", selected)
	}

	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want ListChanged then ModelChanged", len(rec.events))
	}
	list, ok := rec.events[0].(models.ListChanged)
	if !ok {
		t.Fatalf("events[0] = %T, want ListChanged", rec.events[0])
	}
	if !reflect.DeepEqual(list.Models, []string{"mistral"}) {
		t.Errorf("ListChanged.Models = %v, want [mistral]", list.Models)
	}
	cleared, ok := rec.events[1].(models.ModelChanged)
	if !ok {
		t.Fatalf("events[1] = %T, want ModelChanged", rec.events[1])
	}
	if cleared.Model != "" {
		t.Errorf("ModelChanged.Model = %q, want empty (cleared)", cleared.Model)
	}
}

func TestStateStore_RemovingUnselectedKeepsSelection(t *testing.T) {
	ctx := context.Background()
	s := models.NewStateStore(store.NewMemStore(), nil)

	if err := s.SetAvailable(ctx, []string{"llama3", "mistral"}); err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}
	if err := s.SetSelected(ctx, "llama3"); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}
	if err := s.SetAvailable(ctx, []string{"llama3"}); err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}

	selected, ok := s.Selected(ctx)
	if !ok || selected != "llama3" {
		t.Errorf("Selected() = (%q, %v), want (%q, true)", selected, ok, "llama3")
	}
}

func TestStateStore_ReconcileClearsStaleSelection(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemStore()

	setup := models.NewStateStore(kv, nil)
	if err := setup.SetAvailable(ctx, []string{"llama3"}); err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}
	if err := setup.SetSelected(ctx, "llama3"); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}
	// Simulate the availability set changing out from under the persisted
	// selection while the process was down.
	if err := kv.Set(ctx, "models/available_v1", []byte(`["mistral"]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s := models.NewStateStore(kv, nil)
	if err := s.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if selected, ok := s.Selected(ctx); ok {
		t.Errorf("stale selection %q survived Reconcile", selected)
	}
}

func TestStateStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemStore()

	first := models.NewStateStore(kv, nil)
	if err := first.SetAvailable(ctx, []string{"llama3", "mistral"}); err != nil {
		t.Fatalf("SetAvailable: %v", err)
	}
	if err := first.SetSelected(ctx, "mistral"); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}

	second := models.NewStateStore(kv, nil)
	selected, ok := second.Selected(ctx)
	if !ok || selected != "mistral" {
		t.Errorf("Selected() = (%q, %v), want (%q, true)", selected, ok, "mistral")
	}
	want := []string{"llama3", "mistral"}
	if got := second.Available(ctx); !reflect.DeepEqual(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		models []string
		want   []string
	}{
		{"nil", nil, []string{}},
		{"blank entries dropped", []string{"", "  ", "a"}, []string{"a"}},
		{"duplicates removed", []string{"b", "a", "b"}, []string{"a", "b"}},
		{"sorted", []string{"c", "a", "b"}, []string{"a", "b", "c"}},
		{"case sensitive", []string{"A", "a"}, []string{"A", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := models.Normalize(tt.models); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.models, got, tt.want)
			}
		})
	}
}
