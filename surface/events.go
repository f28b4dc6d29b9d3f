// Package surface fans state-change notifications out to attached
// presentation surfaces. Delivery is best-effort and independent per
// surface: one failing target never affects the others.
package surface

import "github.com/ollamate/core/core/protocol"

// Event is a presentation notification. The variant set is closed: every
// surface can switch over all cases statically.
type Event interface {
	isEvent()
}

// ModelUpdated reports the model now in effect. An empty Model means no
// model is selected.
type ModelUpdated struct {
	Model string
}

func (ModelUpdated) isEvent() {}

// ResponseChunk carries one streamed fragment of an assistant response.
// First marks the opening fragment of a turn so surfaces can start a new
// output block.
type ResponseChunk struct {
	Text  string
	First bool
}

func (ResponseChunk) isEvent() {}

// SessionLoaded replaces the displayed conversation with a stored one.
type SessionLoaded struct {
	Messages []protocol.Turn
	Model    string
}

func (SessionLoaded) isEvent() {}

// DisplayCleared tells surfaces to discard the displayed conversation.
type DisplayCleared struct{}

func (DisplayCleared) isEvent() {}

// ThinkingChanged reports whether a generation call is in flight.
type ThinkingChanged struct {
	Thinking bool
}

func (ThinkingChanged) isEvent() {}
