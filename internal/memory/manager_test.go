package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider scripts provider behavior for manager tests.
type fakeProvider struct {
	stored    []Entry
	contexts  []ConversationContext
	history   []Entry
	relevant  []Entry
	failStore bool
}

func (f *fakeProvider) StoreMemory(_ context.Context, e Entry) error {
	if f.failStore {
		return errors.New("backend down")
	}
	f.stored = append(f.stored, e)
	return nil
}

func (f *fakeProvider) RetrieveMemories(_ context.Context, _ string, limit int, _ map[string]interface{}) ([]Entry, error) {
	if limit < len(f.relevant) {
		return f.relevant[:limit], nil
	}
	return f.relevant, nil
}

func (f *fakeProvider) GetConversationHistory(_ context.Context, _ string, limit int) ([]Entry, error) {
	if limit > 0 && limit < len(f.history) {
		return f.history[len(f.history)-limit:], nil
	}
	return f.history, nil
}

func (f *fakeProvider) StoreConversationContext(_ context.Context, cc ConversationContext) error {
	if f.failStore {
		return errors.New("backend down")
	}
	f.contexts = append(f.contexts, cc)
	return nil
}

func (f *fakeProvider) GetConversationContext(_ context.Context, _ string) (*ConversationContext, error) {
	if len(f.contexts) == 0 {
		return nil, nil
	}
	return &f.contexts[len(f.contexts)-1], nil
}

func newTestManager(p Provider) *Manager {
	m := NewManager(zap.NewNop())
	if p != nil {
		m.RegisterProvider("vector", p)
	}
	return m
}

func TestManagerUnknownProviderDegrades(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	assert.Empty(t, m.RetrieveMemories(ctx, "vector", "query", 5, nil))
	assert.Empty(t, m.GetConversationHistory(ctx, "vector", "t1", 5))
	assert.Nil(t, m.GetConversationContext(ctx, "vector", "t1"))
	assert.Equal(t, "", m.GetRelevantContext(ctx, "vector", "t1", "query", 5))

	err := m.StoreMemory(ctx, "vector", Entry{Content: "x"})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestManagerStoreFillsIDAndTimestamp(t *testing.T) {
	p := &fakeProvider{}
	m := newTestManager(p)

	require.NoError(t, m.StoreMemory(context.Background(), "vector", Entry{Content: "x"}))
	require.Len(t, p.stored, 1)
	assert.NotEmpty(t, p.stored[0].ID)
	assert.False(t, p.stored[0].Timestamp.IsZero())
}

func TestStoreConversationTurnWritesBothRoles(t *testing.T) {
	p := &fakeProvider{}
	m := newTestManager(p)

	require.NoError(t, m.StoreConversationTurn(context.Background(), "vector", "t1", "question", "answer"))
	require.Len(t, p.stored, 2)

	assert.Equal(t, "question", p.stored[0].Content)
	assert.Equal(t, "user", p.stored[0].Metadata["role"])
	assert.Equal(t, "answer", p.stored[1].Content)
	assert.Equal(t, "agent", p.stored[1].Metadata["role"])
	for _, e := range p.stored {
		assert.Equal(t, "t1", e.Metadata["thread_id"])
		assert.Equal(t, KindConversation, e.Kind)
	}
	assert.True(t, p.stored[0].Timestamp.Before(p.stored[1].Timestamp))
}

func TestGetRelevantContextRendering(t *testing.T) {
	now := time.Now().UTC()
	p := &fakeProvider{
		history: []Entry{
			{ID: "h1", Content: "hello there", Metadata: map[string]interface{}{"role": "user"}, Timestamp: now},
			{ID: "h2", Content: "hi, how can I help?", Metadata: map[string]interface{}{"role": "agent"}, Timestamp: now.Add(time.Second)},
		},
		relevant: []Entry{
			{ID: "h2", Content: "hi, how can I help?"}, // duplicate of recent, must be dropped
			{ID: "p1", Content: "older related fact"},
		},
	}
	m := newTestManager(p)

	got := m.GetRelevantContext(context.Background(), "vector", "t1", "greeting", 5)

	assert.Contains(t, got, "Recent conversation:\n")
	assert.Contains(t, got, "User: hello there")
	assert.Contains(t, got, "Agent: hi, how can I help?")
	assert.Contains(t, got, "Relevant past context:\n")
	assert.Contains(t, got, "Past: older related fact")

	// Deduplicated by id: the duplicate appears once, in the recent
	// section only.
	assert.Equal(t, 1, strings.Count(got, "hi, how can I help?"))
}

func TestGetRelevantContextEmptyWithoutHistory(t *testing.T) {
	// A thread with no recorded conversation gets no context block,
	// even when the store holds semantically similar entries.
	p := &fakeProvider{
		relevant: []Entry{{ID: "p1", Content: "a stored fact"}},
	}
	m := newTestManager(p)

	got := m.GetRelevantContext(context.Background(), "vector", "t1", "facts", 5)
	assert.Empty(t, got)
}

func TestGetCheckpointHandle(t *testing.T) {
	m := NewManager(zap.NewNop())
	assert.Nil(t, m.GetCheckpointHandle())

	cp := NewCheckpointProvider("", zap.NewNop())
	m.RegisterProvider("checkpoint", cp)
	assert.Same(t, cp, m.GetCheckpointHandle())
}
