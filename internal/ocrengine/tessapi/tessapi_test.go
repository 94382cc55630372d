package tessapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	e := New("")
	assert.Equal(t, "eng", e.Language)
	assert.Equal(t, 3, e.PSM)
}

func TestRecognizeHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("eng").Recognize(ctx, "missing.png")
	assert.ErrorIs(t, err, context.Canceled)
}
