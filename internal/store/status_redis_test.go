package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatus(t *testing.T) (*RedisStatus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStatusFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	s, _ := newTestStatus(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Set(ctx, "doc-1", Status{Stage: StageQueued, Start: &start}))
	require.NoError(t, s.Set(ctx, "doc-1", Status{Stage: StageOCR, Pages: 12, Chunks: 4, QualityScore: 30}))

	st, ok, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StageOCR, st.Stage)
	assert.Equal(t, 12, st.Pages)
	assert.Equal(t, 4, st.Chunks)
	assert.Equal(t, 30, st.QualityScore)
	require.NotNil(t, st.Start)
	assert.True(t, start.Equal(*st.Start), "start is kept across updates")
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStatus(t)
	_, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetRefreshesTTL(t *testing.T) {
	s, mr := newTestStatus(t)
	require.NoError(t, s.Set(context.Background(), "doc-2", Status{Stage: StageDone, Chars: 10}))
	assert.Equal(t, time.Hour, mr.TTL("ocrdoc:doc-2:status"))

	mr.FastForward(2 * time.Hour)
	_, ok, err := s.Get(context.Background(), "doc-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetadataAndMessage(t *testing.T) {
	s, _ := newTestStatus(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "doc-3", Status{
		Stage:    StageFailed,
		Message:  "chunk 1-2 failed",
		Metadata: map[string]interface{}{"engine": "tesseract"},
	}))

	st, ok, err := s.Get(ctx, "doc-3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "chunk 1-2 failed", st.Message)
	assert.Equal(t, "tesseract", st.Metadata["engine"])
}

func TestStageTerminal(t *testing.T) {
	for _, s := range []Stage{StageDone, StageFallback, StageFailed} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []Stage{StageQueued, StageExtracting, StageQuality, StageOCR} {
		assert.False(t, s.Terminal(), s)
	}
}
