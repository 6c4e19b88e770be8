// internal/models/chat.go
package models

import "time"

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of a session transcript.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Route     string    `json:"route,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
