package ocrengine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTesseract(t *testing.T, body string) *Tesseract {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "tesseract")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	eng := NewTesseract("por")
	eng.Binary = path
	return eng
}

func TestDefaultOptions(t *testing.T) {
	assert.Equal(t, Options{Language: "eng", PSM: 3, OEM: 1}, DefaultOptions(""))
	assert.Equal(t, "por", DefaultOptions("por").Language)
}

func TestTesseractPassesFlags(t *testing.T) {
	eng := fakeTesseract(t, `echo "$@"`+"\n")
	text, err := eng.Recognize(context.Background(), "/tmp/page-1.png")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/page-1.png stdout -l por --psm 3 --oem 1", text)
}

func TestTesseractTrimsOutput(t *testing.T) {
	eng := fakeTesseract(t, "printf '\\n  recognized text \\n\\n'\n")
	text, err := eng.Recognize(context.Background(), "page.png")
	require.NoError(t, err)
	assert.Equal(t, "recognized text", text)
}

func TestTesseractEmptyOutput(t *testing.T) {
	eng := fakeTesseract(t, "printf '   \\n'\n")
	_, err := eng.Recognize(context.Background(), "page.png")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestTesseractNonZeroExit(t *testing.T) {
	eng := fakeTesseract(t, "echo 'Error in pixReadStream' >&2\nexit 3\n")
	_, err := eng.Recognize(context.Background(), "page.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with 3")
	assert.Contains(t, err.Error(), "pixReadStream")
}

func TestTesseractKilledOnCancel(t *testing.T) {
	eng := fakeTesseract(t, "exec sleep 30\n")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := eng.Recognize(ctx, "page.png")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}
