package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeWait, m)

	m, err = ParseMode("reject")
	require.NoError(t, err)
	assert.Equal(t, ModeReject, m)

	_, err = ParseMode("drop")
	assert.Error(t, err)
}

func TestRejectModeFailsWhenSaturated(t *testing.T) {
	l := New(Options{Capacity: 2, Mode: ModeReject})

	release, err := l.Allow(context.Background(), 2)
	require.NoError(t, err)

	_, err = l.Allow(context.Background(), 1)
	assert.ErrorIs(t, err, ErrSaturated)

	release()
	release2, err := l.Allow(context.Background(), 1)
	require.NoError(t, err)
	release2()
}

func TestWaitModeBlocksUntilRelease(t *testing.T) {
	l := New(Options{Capacity: 1})
	release, err := l.Allow(context.Background(), 1)
	require.NoError(t, err)

	admitted := make(chan struct{})
	go func() {
		r, err := l.Allow(context.Background(), 1)
		if err == nil {
			r()
		}
		close(admitted)
	}()

	select {
	case <-admitted:
		t.Fatal("admitted while saturated")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	select {
	case <-admitted:
	case <-time.After(2 * time.Second):
		t.Fatal("not admitted after release")
	}
}

func TestWaitModeHonorsContext(t *testing.T) {
	l := New(Options{Capacity: 1})
	require.True(t, l.TryAcquire(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Allow(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOversizedRequestIsClamped(t *testing.T) {
	l := New(Options{Capacity: 3})
	release, err := l.Allow(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, l.TryAcquire(1))
	release()
	assert.True(t, l.TryAcquire(3))
}

func TestZeroCapacityBecomesOne(t *testing.T) {
	l := New(Options{})
	assert.Equal(t, 1, l.Capacity())
	assert.Equal(t, ModeWait, l.Mode())
}
