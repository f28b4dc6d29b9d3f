package models

import "context"

// Event is a model-state change notification. The variant set is closed:
// every subscriber can switch over all cases statically.
type Event interface {
	isEvent()
}

// ModelChanged reports a new selection. An empty Model means the selection
// was cleared.
type ModelChanged struct {
	Model string
}

func (ModelChanged) isEvent() {}

// ListChanged reports a new availability set, already normalized and sorted.
type ListChanged struct {
	Models []string
}

func (ListChanged) isEvent() {}

// Observer receives model-state events. Delivery is synchronous and in
// subscription order.
type Observer interface {
	OnModelEvent(ctx context.Context, event Event)
}
