package domain

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Message represents a single message in a session. Messages are immutable once appended.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
}

type messageJSON struct {
	ID        string  `json:"id"`
	Role      Role    `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

// MarshalJSON encodes the message with a fractional Unix-seconds timestamp.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: UnixSeconds(m.CreatedAt),
	})
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.ID = raw.ID
	m.Role = raw.Role
	m.Content = raw.Content
	m.CreatedAt = FromUnixSeconds(raw.Timestamp)
	return nil
}

// Session is a conversation: an id, its creation time and its ordered log.
type Session struct {
	ID        string
	CreatedAt time.Time
	Messages  []Message
}

// Summary returns the listing view of the session.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		SessionID:    s.ID,
		CreatedAt:    s.CreatedAt,
		MessageCount: len(s.Messages),
	}
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	SessionID    string
	CreatedAt    time.Time
	MessageCount int
}

// MarshalJSON encodes the summary with a fractional Unix-seconds created_at.
func (s SessionSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SessionID    string  `json:"session_id"`
		CreatedAt    float64 `json:"created_at"`
		MessageCount int     `json:"message_count"`
	}{
		SessionID:    s.SessionID,
		CreatedAt:    UnixSeconds(s.CreatedAt),
		MessageCount: s.MessageCount,
	})
}

// ContextDocument is an opaque structured record supplied to the generator.
type ContextDocument struct {
	Source string
	Data   map[string]any
}

// NewSessionID returns a random 128-bit identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewMessageID returns a unique message identifier.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}

// NewMessage builds a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// UnixSeconds converts t to fractional seconds since the epoch.
func UnixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromUnixSeconds is the inverse of UnixSeconds, at microsecond precision.
func FromUnixSeconds(ts float64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond))
}
