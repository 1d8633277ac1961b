package domain

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry of a session's conversation log.
// Commands is only set on assistant messages.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Commands  []any     `json:"commands,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SlideCode is a whole slide as HTML plus CSS.
type SlideCode struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
}
