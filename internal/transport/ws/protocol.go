package ws

// Frame types.
const (
	TypeChat  = "chat"
	TypeReply = "reply"
	TypeError = "error"
)

// Error codes carried by error frames.
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeInvalidInput   = "invalid_input"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeUpstream       = "upstream_error"
	ErrorCodeInternal       = "internal_error"
)

// ChatFrame is sent by the client to run one chat turn.
type ChatFrame struct {
	Type      string  `json:"type"`
	RequestID string  `json:"request_id,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
	Message   *string `json:"message"`
}

// ReplyFrame carries the assistant reply for a chat frame.
type ReplyFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	MessageID string `json:"message_id"`
	Ts        int64  `json:"ts"`
}

// ErrorFrame reports a failed frame.
type ErrorFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}
