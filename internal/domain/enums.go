// Package domain defines the core domain models for the chat gateway.
package domain

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem never appears in a session log; generators use it for instructions.
	RoleSystem Role = "system"
)

// Valid reports whether r may be stored in a session log.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}
