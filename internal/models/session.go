package models

import (
	"context"
	"time"
)

// Session describes one chat session as seen by the process engine.
type Session struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"accountId"`
	ISPName      string    `json:"ispName"`
	MessageCount int64     `json:"messageCount"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// IsExpired checks if session has expired
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// SessionRepository stores the loaded account and the transcript per session.
// SaveSnapshot replaces any previous account and clears the transcript.
type SessionRepository interface {
	SaveSnapshot(ctx context.Context, sessionID string, snapshot *AccountSnapshot) error
	LoadSnapshot(ctx context.Context, sessionID string) (*AccountSnapshot, error)
	AppendMessages(ctx context.Context, sessionID string, messages ...ChatMessage) error
	Messages(ctx context.Context, sessionID string) ([]ChatMessage, error)
	Describe(ctx context.Context, sessionID string) (*Session, error)
	Reset(ctx context.Context, sessionID string) error
}
