package memory

import (
	"context"
	"errors"
	"time"
)

// Kind classifies a memory entry.
type Kind string

const (
	KindConversation Kind = "conversation"
	KindAgentResult  Kind = "agent_result"
	KindContext      Kind = "context"
)

var (
	// ErrProviderNotFound is returned internally when a named provider
	// is not registered. Manager methods never surface it to callers;
	// they log and return empty results instead.
	ErrProviderNotFound = errors.New("memory provider not found")
)

// Entry is a single stored memory. Entries are never mutated, only
// superseded by newer entries with different ids.
type Entry struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Kind      Kind                   `json:"memory_type"`
}

// ConversationContext tracks one conversation thread.
type ConversationContext struct {
	ThreadID    string                 `json:"thread_id"`
	UserID      string                 `json:"user_id,omitempty"`
	SessionID   string                 `json:"session_id,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	LastUpdated time.Time              `json:"last_updated"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Provider is the storage interface both backends implement.
type Provider interface {
	// StoreMemory persists one entry.
	StoreMemory(ctx context.Context, entry Entry) error
	// RetrieveMemories returns entries relevant to the query. Backends
	// without semantic search return an empty list.
	RetrieveMemories(ctx context.Context, query string, limit int, filter map[string]interface{}) ([]Entry, error)
	// GetConversationHistory returns the thread's entries ordered by
	// timestamp ascending.
	GetConversationHistory(ctx context.Context, threadID string, limit int) ([]Entry, error)
	// StoreConversationContext persists the thread context record.
	StoreConversationContext(ctx context.Context, cc ConversationContext) error
	// GetConversationContext returns the thread context, or nil when
	// the thread is unknown.
	GetConversationContext(ctx context.Context, threadID string) (*ConversationContext, error)
}
