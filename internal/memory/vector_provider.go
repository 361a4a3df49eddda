package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/agentspawn/orchestrator/internal/embeddings"
	"github.com/agentspawn/orchestrator/internal/vectordb"
)

// VectorProvider stores entries with embeddings in the vector store,
// enabling semantic similarity retrieval with arbitrary metadata
// filters.
type VectorProvider struct {
	store  *vectordb.Client
	embed  *embeddings.Service
	logger *zap.Logger
}

// NewVectorProvider builds the provider and verifies the backing store
// is reachable; the caller treats an error as "provider unavailable"
// and degrades rather than failing startup.
func NewVectorProvider(ctx context.Context, store *vectordb.Client, embed *embeddings.Service, logger *zap.Logger) (*VectorProvider, error) {
	if store == nil || embed == nil {
		return nil, fmt.Errorf("vector provider requires a vector store and an embedding service")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("vector store unreachable: %w", err)
	}
	return &VectorProvider{store: store, embed: embed, logger: logger}, nil
}

// StoreMemory embeds the entry content and upserts it with the
// required payload fields {timestamp, memory_type, thread_id?}.
func (p *VectorProvider) StoreMemory(ctx context.Context, entry Entry) error {
	vec, err := p.embed.Generate(ctx, entry.Content)
	if err != nil {
		return fmt.Errorf("embed memory: %w", err)
	}

	payload := map[string]interface{}{
		"id":          entry.ID,
		"content":     entry.Content,
		"timestamp":   entry.Timestamp.Format(time.RFC3339Nano),
		"memory_type": string(entry.Kind),
	}
	for k, v := range entry.Metadata {
		payload[k] = v
	}

	_, err = p.store.Upsert(ctx, []vectordb.Point{{
		ID:      entry.ID,
		Vector:  vec,
		Payload: payload,
	}})
	if err != nil {
		return fmt.Errorf("upsert memory: %w", err)
	}
	return nil
}

// RetrieveMemories embeds the query and runs a similarity search.
func (p *VectorProvider) RetrieveMemories(ctx context.Context, query string, limit int, filter map[string]interface{}) ([]Entry, error) {
	vec, err := p.embed.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	points, err := p.store.Query(ctx, vec, limit, matchFilter(filter))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(points))
	for _, pt := range points {
		entries = append(entries, entryFromPayload(pt.Payload))
	}
	return entries, nil
}

// GetConversationHistory scrolls the thread's conversation entries and
// sorts them by timestamp ascending.
func (p *VectorProvider) GetConversationHistory(ctx context.Context, threadID string, limit int) ([]Entry, error) {
	filter := matchFilter(map[string]interface{}{
		"thread_id":   threadID,
		"memory_type": string(KindConversation),
	})
	points, err := p.store.Scroll(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(points))
	for _, pt := range points {
		entries = append(entries, entryFromPayload(pt.Payload))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// StoreConversationContext stores the thread context as a reserved
// entry keyed by context_<thread_id>.
func (p *VectorProvider) StoreConversationContext(ctx context.Context, cc ConversationContext) error {
	meta, err := json.Marshal(cc.Metadata)
	if err != nil {
		meta = []byte("{}")
	}
	entry := Entry{
		ID:      fmt.Sprintf("context_%s", cc.ThreadID),
		Content: fmt.Sprintf("Conversation context for thread %s", cc.ThreadID),
		Metadata: map[string]interface{}{
			"thread_id":    cc.ThreadID,
			"user_id":      cc.UserID,
			"session_id":   cc.SessionID,
			"created_at":   cc.CreatedAt.Format(time.RFC3339Nano),
			"last_updated": cc.LastUpdated.Format(time.RFC3339Nano),
			"metadata":     string(meta),
		},
		Timestamp: cc.LastUpdated,
		Kind:      KindContext,
	}
	return p.StoreMemory(ctx, entry)
}

// GetConversationContext fetches the reserved context entry for a
// thread.
func (p *VectorProvider) GetConversationContext(ctx context.Context, threadID string) (*ConversationContext, error) {
	filter := matchFilter(map[string]interface{}{
		"thread_id":   threadID,
		"memory_type": string(KindContext),
	})
	points, err := p.store.Scroll(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	pl := points[0].Payload
	cc := &ConversationContext{
		ThreadID:  stringField(pl, "thread_id"),
		UserID:    stringField(pl, "user_id"),
		SessionID: stringField(pl, "session_id"),
	}
	cc.CreatedAt, _ = time.Parse(time.RFC3339Nano, stringField(pl, "created_at"))
	cc.LastUpdated, _ = time.Parse(time.RFC3339Nano, stringField(pl, "last_updated"))
	if raw := stringField(pl, "metadata"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &cc.Metadata)
	}
	return cc, nil
}

// matchFilter renders simple equality conditions as a Qdrant filter.
func matchFilter(kv map[string]interface{}) map[string]interface{} {
	if len(kv) == 0 {
		return nil
	}
	must := make([]map[string]interface{}, 0, len(kv))
	for k, v := range kv {
		must = append(must, map[string]interface{}{
			"key":   k,
			"match": map[string]interface{}{"value": v},
		})
	}
	return map[string]interface{}{"must": must}
}

var reservedPayloadFields = map[string]struct{}{
	"id": {}, "content": {}, "timestamp": {}, "memory_type": {},
}

func entryFromPayload(pl map[string]interface{}) Entry {
	e := Entry{
		ID:      stringField(pl, "id"),
		Content: stringField(pl, "content"),
		Kind:    Kind(stringField(pl, "memory_type")),
	}
	e.Timestamp, _ = time.Parse(time.RFC3339Nano, stringField(pl, "timestamp"))
	for k, v := range pl {
		if _, reserved := reservedPayloadFields[k]; reserved {
			continue
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]interface{})
		}
		e.Metadata[k] = v
	}
	return e
}

func stringField(pl map[string]interface{}, key string) string {
	if v, ok := pl[key].(string); ok {
		return v
	}
	return ""
}
