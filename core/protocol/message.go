// Package protocol defines the conversation wire types shared by the
// history store, the coordinator, and generation backends.
package protocol

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn is a single role-tagged message within a conversation.
// Turns are immutable once appended to a session.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewTurn creates a Turn with the given role and content.
//
// Example:
//
//	turn := protocol.NewTurn(protocol.RoleUser, "Hello, world!")
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content}
}

// CloneTurns returns a defensive copy of a turn sequence. Callers use it
// when handing conversation history across ownership boundaries.
func CloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	copied := make([]Turn, len(turns))
	copy(copied, turns)
	return copied
}
