package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/metrics"
)

// DefaultProvider is used whenever a caller does not name one.
const DefaultProvider = "vector"

// Manager fronts the registered memory providers. Its read paths never
// surface errors to the pipeline: a missing or failing provider is
// logged and yields empty results, so memory trouble degrades context
// quality instead of failing the task.
type Manager struct {
	providers map[string]Provider
	logger    *zap.Logger
}

// NewManager builds an empty manager; register providers with
// RegisterProvider before use.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// RegisterProvider adds a provider under the given name, replacing any
// previous registration.
func (m *Manager) RegisterProvider(name string, p Provider) {
	m.providers[name] = p
	m.logger.Info("Memory provider registered", zap.String("provider", name))
}

// Providers lists registered provider names.
func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	return names
}

func (m *Manager) provider(name string) (Provider, error) {
	if name == "" {
		name = DefaultProvider
	}
	p, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// StoreMemory persists an entry via the named provider. A missing id
// or timestamp is filled in.
func (m *Manager) StoreMemory(ctx context.Context, providerName string, entry Entry) error {
	p, err := m.provider(providerName)
	if err != nil {
		m.logger.Warn("Memory store skipped", zap.String("provider", providerName), zap.Error(err))
		metrics.MemoryStores.WithLabelValues(providerName, "skipped").Inc()
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := p.StoreMemory(ctx, entry); err != nil {
		m.logger.Warn("Memory store failed",
			zap.String("provider", providerName),
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		metrics.MemoryStores.WithLabelValues(providerName, "error").Inc()
		return err
	}
	metrics.MemoryStores.WithLabelValues(providerName, "ok").Inc()
	return nil
}

// RetrieveMemories runs a relevance search via the named provider.
// Errors degrade to an empty result.
func (m *Manager) RetrieveMemories(ctx context.Context, providerName, query string, limit int, filter map[string]interface{}) []Entry {
	p, err := m.provider(providerName)
	if err != nil {
		m.logger.Warn("Memory retrieval skipped", zap.String("provider", providerName), zap.Error(err))
		metrics.MemoryRetrievals.WithLabelValues(providerName, "skipped").Inc()
		return nil
	}
	entries, err := p.RetrieveMemories(ctx, query, limit, filter)
	if err != nil {
		m.logger.Warn("Memory retrieval failed", zap.String("provider", providerName), zap.Error(err))
		metrics.MemoryRetrievals.WithLabelValues(providerName, "error").Inc()
		return nil
	}
	metrics.MemoryRetrievals.WithLabelValues(providerName, "ok").Inc()
	return entries
}

// GetConversationHistory returns the thread's history via the named
// provider, oldest first. Errors degrade to an empty result.
func (m *Manager) GetConversationHistory(ctx context.Context, providerName, threadID string, limit int) []Entry {
	p, err := m.provider(providerName)
	if err != nil {
		m.logger.Warn("History lookup skipped", zap.String("provider", providerName), zap.Error(err))
		return nil
	}
	entries, err := p.GetConversationHistory(ctx, threadID, limit)
	if err != nil {
		m.logger.Warn("History lookup failed",
			zap.String("provider", providerName),
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		return nil
	}
	return entries
}

// StoreConversationContext persists the thread context via the named
// provider.
func (m *Manager) StoreConversationContext(ctx context.Context, providerName string, cc ConversationContext) error {
	p, err := m.provider(providerName)
	if err != nil {
		m.logger.Warn("Context store skipped", zap.String("provider", providerName), zap.Error(err))
		return err
	}
	if cc.LastUpdated.IsZero() {
		cc.LastUpdated = time.Now().UTC()
	}
	if cc.CreatedAt.IsZero() {
		cc.CreatedAt = cc.LastUpdated
	}
	if err := p.StoreConversationContext(ctx, cc); err != nil {
		m.logger.Warn("Context store failed",
			zap.String("provider", providerName),
			zap.String("thread_id", cc.ThreadID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// GetConversationContext fetches the thread context via the named
// provider; nil when unknown or on error.
func (m *Manager) GetConversationContext(ctx context.Context, providerName, threadID string) *ConversationContext {
	p, err := m.provider(providerName)
	if err != nil {
		return nil
	}
	cc, err := p.GetConversationContext(ctx, threadID)
	if err != nil {
		m.logger.Warn("Context lookup failed",
			zap.String("provider", providerName),
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		return nil
	}
	return cc
}

// StoreConversationTurn records one user/agent exchange as two
// conversation entries sharing the thread id.
func (m *Manager) StoreConversationTurn(ctx context.Context, providerName, threadID, userMessage, agentResponse string) error {
	now := time.Now().UTC()
	userEntry := Entry{
		ID:      uuid.New().String(),
		Content: userMessage,
		Metadata: map[string]interface{}{
			"thread_id": threadID,
			"role":      "user",
		},
		Timestamp: now,
		Kind:      KindConversation,
	}
	agentEntry := Entry{
		ID:      uuid.New().String(),
		Content: agentResponse,
		Metadata: map[string]interface{}{
			"thread_id": threadID,
			"role":      "agent",
		},
		Timestamp: now.Add(time.Millisecond),
		Kind:      KindConversation,
	}
	if err := m.StoreMemory(ctx, providerName, userEntry); err != nil {
		return err
	}
	return m.StoreMemory(ctx, providerName, agentEntry)
}

// GetRelevantContext assembles a context block for a new task:
// the thread's recent turns, then semantically similar entries from
// past conversations, deduplicated against the recent ones. A thread
// with no recorded conversation yields "" even when the store holds
// semantically similar entries.
func (m *Manager) GetRelevantContext(ctx context.Context, providerName, threadID, query string, limit int) string {
	timer := prometheus.NewTimer(metrics.ContextAssemblyDuration)
	defer timer.ObserveDuration()

	if limit <= 0 {
		limit = 5
	}

	history := m.GetConversationHistory(ctx, providerName, threadID, limit*2)
	if len(history) == 0 {
		return ""
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	seen := make(map[string]struct{}, len(history))
	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, e := range history {
		seen[e.ID] = struct{}{}
		b.WriteString(fmt.Sprintf("%s: %s\n", titleRole(e), e.Content))
	}

	relevant := m.RetrieveMemories(ctx, providerName, query, limit, nil)
	var past []Entry
	for _, e := range relevant {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		past = append(past, e)
	}
	if len(past) > 0 {
		b.WriteString("\nRelevant past context:\n")
		for _, e := range past {
			b.WriteString(fmt.Sprintf("Past: %s\n", e.Content))
		}
	}
	return b.String()
}

// GetCheckpointHandle exposes the checkpoint provider for callers that
// need thread persistence directly; nil when none is registered.
func (m *Manager) GetCheckpointHandle() *CheckpointProvider {
	if p, ok := m.providers["checkpoint"].(*CheckpointProvider); ok {
		return p
	}
	return nil
}

func titleRole(e Entry) string {
	role, _ := e.Metadata["role"].(string)
	if role == "" {
		role = "unknown"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
