// Package orchestrator runs one OCR pass over a document: it partitions the
// pages, fans the chunks out to the worker pool under a global timeout and
// merges the results in page order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/local/ocrdispatcher/internal/chunk"
	"github.com/local/ocrdispatcher/internal/limiter"
	"github.com/local/ocrdispatcher/internal/merge"
	"github.com/local/ocrdispatcher/internal/metrics"
	"github.com/local/ocrdispatcher/internal/worker"
)

// DefaultTimeout bounds a whole OCR pass when Options.Timeout is unset.
const DefaultTimeout = 5 * time.Minute

// Dispatcher is the slice of *worker.Pool the orchestrator needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, tasks []worker.Task) ([]*worker.Future, error)
	Capacity() int
}

type Options struct {
	Pool    Dispatcher
	Timeout time.Duration
	// TempDir holds the per-document copy handed to workers. Empty means os.TempDir().
	TempDir string
}

type Orchestrator struct {
	pool    Dispatcher
	timeout time.Duration
	tempDir string
}

func New(opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Orchestrator{pool: opts.Pool, timeout: opts.Timeout, tempDir: opts.TempDir}
}

// Timeout returns the global limit applied to each pass.
func (o *Orchestrator) Timeout() time.Duration { return o.timeout }

// Chunks returns how many chunk tasks a pass over totalPages dispatches.
func (o *Orchestrator) Chunks(totalPages int) int {
	return len(chunk.Partition(totalPages, o.pool.Capacity()))
}

// ProcessWithOCR OCRs every page of doc and returns the merged text.
//
// A pass that outlives the timeout returns an error matching ErrOCRTimeout;
// a failed chunk returns *ChunkTaskError. In both cases the remaining chunk
// work is cancelled. The temp copy of doc is removed on every path.
func (o *Orchestrator) ProcessWithOCR(ctx context.Context, doc []byte, totalPages int, docID string) (string, error) {
	if totalPages <= 0 {
		return "", nil
	}
	start := time.Now()

	path, err := o.writeTemp(doc)
	if err != nil {
		return "", fmt.Errorf("persist document: %w", err)
	}
	defer o.removeTemp(path, docID)

	ranges := chunk.Partition(totalPages, o.pool.Capacity())
	if err := chunk.Validate(ranges, totalPages); err != nil {
		return "", fmt.Errorf("partition %d pages: %w", totalPages, err)
	}
	tasks := make([]worker.Task, len(ranges))
	for i, r := range ranges {
		tasks[i] = worker.Task{Range: r, DocumentPath: path, DocumentID: docID, TotalPages: totalPages}
	}

	log.Info().
		Str("doc_id", docID).
		Int("pages", totalPages).
		Int("chunks", len(ranges)).
		Int("capacity", o.pool.Capacity()).
		Dur("timeout", o.timeout).
		Msg("starting OCR pass")

	results, err := o.run(ctx, tasks)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveOCRPass(passResult(err), elapsed)
		log.Warn().Err(err).Str("doc_id", docID).Dur("duration", elapsed).Msg("OCR pass failed")
		return "", err
	}

	text := merge.Merge(results)
	metrics.ObserveOCRPass("success", elapsed)
	log.Info().
		Str("doc_id", docID).
		Int("chars", len(text)).
		Dur("duration", elapsed).
		Msg("OCR pass complete")
	return text, nil
}

// run dispatches the tasks and races the join of all futures against the
// timeout. Results are indexed by chunk, not by completion order.
func (o *Orchestrator) run(parent context.Context, tasks []worker.Task) ([]chunk.Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	futures, err := o.pool.Dispatch(gctx, tasks)
	if err != nil {
		return nil, o.classify(parent, ctx, start, err)
	}

	results := make([]chunk.Result, len(futures))
	for i, f := range futures {
		g.Go(func() error {
			select {
			case <-f.Done():
			case <-gctx.Done():
				return gctx.Err()
			}
			res, err := f.Result()
			if err != nil {
				return &ChunkTaskError{Chunk: tasks[i].Range, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, o.classify(parent, ctx, start, err)
	}
	return results, nil
}

func (o *Orchestrator) classify(parent, ctx context.Context, start time.Time, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &OCRTimeoutError{Elapsed: time.Since(start), Limit: o.timeout}
	}
	return err
}

func passResult(err error) string {
	switch {
	case errors.Is(err, ErrOCRTimeout):
		return "timeout"
	case errors.Is(err, limiter.ErrSaturated):
		return "rejected"
	default:
		return "failed"
	}
}

func (o *Orchestrator) writeTemp(doc []byte) (string, error) {
	f, err := os.CreateTemp(o.tempDir, "ocrdoc-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(doc); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (o *Orchestrator) removeTemp(path, docID string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		cerr := &CleanupError{Path: path, Err: err}
		log.Warn().Err(cerr).Str("doc_id", docID).Msg("failed to remove temp document")
	}
}
