package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CheckpointProvider piggybacks on the pipeline's own per-thread state
// persistence. It keeps thread-scoped history in an in-memory map and
// optionally mirrors writes to Redis so history survives restarts. It
// does not support semantic search.
type CheckpointProvider struct {
	mu       sync.RWMutex
	threads  map[string][]Entry
	contexts map[string]ConversationContext

	rdb    *redis.Client // nil when no mirror is configured
	ttl    time.Duration
	logger *zap.Logger
}

// NewCheckpointProvider builds the provider. redisAddr may be empty;
// an unreachable Redis is logged and the mirror disabled rather than
// failing.
func NewCheckpointProvider(redisAddr string, logger *zap.Logger) *CheckpointProvider {
	p := &CheckpointProvider{
		threads:  make(map[string][]Entry),
		contexts: make(map[string]ConversationContext),
		ttl:      24 * time.Hour,
		logger:   logger,
	}
	if redisAddr != "" {
		cli := redis.NewClient(&redis.Options{
			Addr:         redisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cli.Ping(ctx).Err(); err != nil {
			logger.Warn("Checkpoint Redis mirror unavailable, running in-memory only",
				zap.String("addr", redisAddr),
				zap.Error(err),
			)
		} else {
			p.rdb = cli
		}
	}
	return p
}

func threadKey(threadID string) string  { return fmt.Sprintf("checkpoint:thread:%s", threadID) }
func contextKey(threadID string) string { return fmt.Sprintf("checkpoint:context:%s", threadID) }

// StoreMemory appends the entry to its thread's history. Entries
// without a thread id are accepted and dropped, matching the
// checkpoint backend's scope (thread persistence only).
func (p *CheckpointProvider) StoreMemory(ctx context.Context, entry Entry) error {
	threadID, _ := entry.Metadata["thread_id"].(string)
	if threadID == "" {
		return nil
	}

	p.mu.Lock()
	p.threads[threadID] = append(p.threads[threadID], entry)
	p.mu.Unlock()

	if p.rdb != nil {
		data, err := json.Marshal(entry)
		if err == nil {
			pipe := p.rdb.Pipeline()
			pipe.RPush(ctx, threadKey(threadID), data)
			pipe.Expire(ctx, threadKey(threadID), p.ttl)
			if _, err := pipe.Exec(ctx); err != nil {
				p.logger.Warn("Checkpoint Redis mirror write failed", zap.Error(err))
			}
		}
	}
	return nil
}

// RetrieveMemories always returns an empty list: the checkpoint
// backend has no semantic search.
func (p *CheckpointProvider) RetrieveMemories(_ context.Context, _ string, _ int, _ map[string]interface{}) ([]Entry, error) {
	return nil, nil
}

// GetConversationHistory returns the most recent entries for a thread
// in timestamp order.
func (p *CheckpointProvider) GetConversationHistory(ctx context.Context, threadID string, limit int) ([]Entry, error) {
	p.mu.RLock()
	entries := p.threads[threadID]
	p.mu.RUnlock()

	if len(entries) == 0 && p.rdb != nil {
		entries = p.loadFromMirror(ctx, threadID)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// StoreConversationContext records the latest context for a thread.
func (p *CheckpointProvider) StoreConversationContext(ctx context.Context, cc ConversationContext) error {
	p.mu.Lock()
	p.contexts[cc.ThreadID] = cc
	p.mu.Unlock()

	if p.rdb != nil {
		data, err := json.Marshal(cc)
		if err == nil {
			if err := p.rdb.Set(ctx, contextKey(cc.ThreadID), data, p.ttl).Err(); err != nil {
				p.logger.Warn("Checkpoint Redis mirror write failed", zap.Error(err))
			}
		}
	}
	return nil
}

// GetConversationContext returns the stored context, or nil when the
// thread is unknown.
func (p *CheckpointProvider) GetConversationContext(ctx context.Context, threadID string) (*ConversationContext, error) {
	p.mu.RLock()
	cc, ok := p.contexts[threadID]
	p.mu.RUnlock()
	if ok {
		return &cc, nil
	}

	if p.rdb != nil {
		data, err := p.rdb.Get(ctx, contextKey(threadID)).Bytes()
		if err == nil {
			var mirrored ConversationContext
			if json.Unmarshal(data, &mirrored) == nil {
				p.mu.Lock()
				p.contexts[threadID] = mirrored
				p.mu.Unlock()
				return &mirrored, nil
			}
		}
	}
	return nil, nil
}

func (p *CheckpointProvider) loadFromMirror(ctx context.Context, threadID string) []Entry {
	raw, err := p.rdb.LRange(ctx, threadKey(threadID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if json.Unmarshal([]byte(item), &e) == nil {
			entries = append(entries, e)
		}
	}
	if len(entries) > 0 {
		p.mu.Lock()
		p.threads[threadID] = entries
		p.mu.Unlock()
	}
	return entries
}

// Close releases the Redis mirror connection.
func (p *CheckpointProvider) Close() error {
	if p.rdb != nil {
		return p.rdb.Close()
	}
	return nil
}
