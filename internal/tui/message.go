package tui

import "time"

// Role identifies who a transcript entry belongs to.
type Role string

const (
	RoleUser        Role = "user"
	RoleAssistant   Role = "assistant"
	RoleSystemError Role = "system-error"
)

// ChatMessage is one entry in the session transcript. The assistant's entry
// for an in-flight reply is appended only once the reply finalizes; the
// transcript itself never shrinks and is not persisted across runs.
type ChatMessage struct {
	Role   Role
	Text   string
	SentAt time.Time
}

// errorReplyText is the fixed message shown when the request or stream
// fails. No retries are attempted; the user resends manually.
const errorReplyText = "Something went wrong while contacting the assistant. Please try again."
