package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/local/ocrdispatcher/internal/chunk"
)

// ErrOCRTimeout matches every *OCRTimeoutError.
var ErrOCRTimeout = errors.New("ocr timed out")

// OCRTimeoutError means the global timeout fired before every chunk resolved.
// In-flight chunk work was cancelled.
type OCRTimeoutError struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *OCRTimeoutError) Error() string {
	return fmt.Sprintf("ocr timed out after %s (limit %s)", e.Elapsed.Round(time.Millisecond), e.Limit)
}

func (e *OCRTimeoutError) Unwrap() error { return ErrOCRTimeout }

// ChunkTaskError means one chunk failed, which fails the whole pass.
type ChunkTaskError struct {
	Chunk chunk.PageRange
	Err   error
}

func (e *ChunkTaskError) Error() string {
	return fmt.Sprintf("chunk %s failed: %v", e.Chunk, e.Err)
}

func (e *ChunkTaskError) Unwrap() error { return e.Err }

// CleanupError reports a temp resource that could not be removed. It is
// logged, never returned to callers.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
