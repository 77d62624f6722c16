package store

import (
	"context"
	"time"
)

// Message is one row of the Messages store, already decoded for display.
type Message struct {
	ID             int64 // message.ROWID, the store's sequence id
	Text           string
	Date           *time.Time
	IsFromMe       bool
	IsRead         bool
	Service        string
	Sender         string
	ChatID         int64
	ChatIdentifier string
	ChatName       string
}

// Conversation is a chat summary. Lists of these are rebuilt on every refresh.
type Conversation struct {
	ID            int64
	Identifier    string
	DisplayName   string
	Service       string
	LastMessageAt *time.Time
	Preview       string
	UnreadCount   int
	Participants  []string
}

// Reader is the read side of the Messages store consumed by the watcher
// and the terminal application.
type Reader interface {
	ListConversations(ctx context.Context, limit int) ([]Conversation, error)
	ListMessages(ctx context.Context, chatID int64, limit int) ([]Message, error)
	ListMessagesSince(ctx context.Context, seq int64) ([]Message, error)
	HighestSequenceID(ctx context.Context) (int64, error)
	Freshness(ctx context.Context) (Freshness, error)
}

// NameResolver maps a phone number or email to a display name. An
// unresolved identifier is returned unchanged.
type NameResolver interface {
	Resolve(identifier string) string
}

type identityResolver struct{}

func (identityResolver) Resolve(identifier string) string { return identifier }
