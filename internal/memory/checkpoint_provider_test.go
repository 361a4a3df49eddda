package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func convEntry(id, threadID, content string, ts time.Time) Entry {
	return Entry{
		ID:        id,
		Content:   content,
		Metadata:  map[string]interface{}{"thread_id": threadID, "role": "user"},
		Timestamp: ts,
		Kind:      KindConversation,
	}
}

func TestCheckpointRoundTripOrdering(t *testing.T) {
	p := NewCheckpointProvider("", zap.NewNop())
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, p.StoreMemory(ctx, convEntry("e1", "t1", "first", base)))
	require.NoError(t, p.StoreMemory(ctx, convEntry("e2", "t1", "second", base.Add(time.Second))))
	require.NoError(t, p.StoreMemory(ctx, convEntry("e3", "other", "elsewhere", base)))

	got, err := p.GetConversationHistory(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
	assert.True(t, got[0].Timestamp.Before(got[1].Timestamp))
}

func TestCheckpointHistoryLimit(t *testing.T) {
	p := NewCheckpointProvider("", zap.NewNop())
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.StoreMemory(ctx, convEntry(
			string(rune('a'+i)), "t1", string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))))
	}

	got, err := p.GetConversationHistory(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].Content)
	assert.Equal(t, "e", got[1].Content)
}

func TestCheckpointRetrieveMemoriesIsEmpty(t *testing.T) {
	p := NewCheckpointProvider("", zap.NewNop())
	got, err := p.RetrieveMemories(context.Background(), "anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckpointEntryWithoutThreadIsDropped(t *testing.T) {
	p := NewCheckpointProvider("", zap.NewNop())
	ctx := context.Background()
	require.NoError(t, p.StoreMemory(ctx, Entry{ID: "x", Content: "orphan", Kind: KindConversation}))
	got, err := p.GetConversationHistory(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckpointConversationContext(t *testing.T) {
	p := NewCheckpointProvider("", zap.NewNop())
	ctx := context.Background()

	missing, err := p.GetConversationContext(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cc := ConversationContext{
		ThreadID:    "t1",
		UserID:      "u1",
		CreatedAt:   time.Now().UTC(),
		LastUpdated: time.Now().UTC(),
	}
	require.NoError(t, p.StoreConversationContext(ctx, cc))

	got, err := p.GetConversationContext(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
}

func TestCheckpointRedisMirrorSurvivesRestart(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	p1 := NewCheckpointProvider(srv.Addr(), zap.NewNop())
	require.NoError(t, p1.StoreMemory(ctx, convEntry("e1", "t1", "persisted", base)))
	require.NoError(t, p1.StoreConversationContext(ctx, ConversationContext{
		ThreadID:    "t1",
		SessionID:   "s1",
		CreatedAt:   base,
		LastUpdated: base,
	}))
	require.NoError(t, p1.Close())

	// A fresh provider has an empty in-memory map and must fall back
	// to the mirror.
	p2 := NewCheckpointProvider(srv.Addr(), zap.NewNop())
	got, err := p2.GetConversationHistory(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Content)

	cc, err := p2.GetConversationContext(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, cc)
	assert.Equal(t, "s1", cc.SessionID)
}

func TestCheckpointUnreachableRedisDegradesToMemory(t *testing.T) {
	p := NewCheckpointProvider("127.0.0.1:1", zap.NewNop())
	ctx := context.Background()
	require.NoError(t, p.StoreMemory(ctx, convEntry("e1", "t1", "local only", time.Now())))
	got, err := p.GetConversationHistory(ctx, "t1", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
