// Package history persists a bounded, ordered collection of chat sessions
// on top of the key-value substrate, so past conversations can be listed,
// reloaded, and resumed.
package history

import (
	"strconv"
	"strings"
	"time"

	"github.com/ollamate/core/core/protocol"
)

// FallbackName labels a session whose messages contain no user turn.
const FallbackName = "Chat Session"

const summaryWords = 7

// Session is one persisted conversation: ordered turns plus metadata.
// ID is an opaque token derived from the creation time and Timestamp is
// the recency ordering key; the two correlate by construction.
type Session struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Timestamp int64           `json:"timestamp"`
	ModelUsed string          `json:"modelUsed"`
	Messages  []protocol.Turn `json:"messages"`
}

// Clone returns a deep copy of the session. The store hands out and accepts
// only copies so callers never hold a reference into storage.
func (s Session) Clone() Session {
	s.Messages = protocol.CloneTurns(s.Messages)
	return s
}

// NewID derives a session identifier from a creation time.
func NewID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// Summarize derives a short human-readable name from a turn sequence: the
// first seven words of the first user turn, with an ellipsis marker when
// the turn had more. Returns FallbackName when no user turn exists.
func Summarize(messages []protocol.Turn) string {
	for _, msg := range messages {
		if msg.Role != protocol.RoleUser {
			continue
		}
		words := strings.Fields(msg.Content)
		if len(words) == 0 {
			continue
		}
		if len(words) <= summaryWords {
			return strings.Join(words, " ")
		}
		return strings.Join(words[:summaryWords], " ") + "..."
	}
	return FallbackName
}
