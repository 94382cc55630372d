// Package worker runs chunk OCR tasks on a fixed-size pool of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/ocrdispatcher/internal/chunk"
	"github.com/local/ocrdispatcher/internal/limiter"
	"github.com/local/ocrdispatcher/internal/metrics"
)

// ErrPoolClosed is returned by Dispatch after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Task is one chunk of one document.
type Task struct {
	Range        chunk.PageRange
	DocumentPath string
	DocumentID   string
	TotalPages   int
}

// Processor turns a task into chunk text. ChunkWorker is the production one.
type Processor interface {
	Process(ctx context.Context, t Task) (chunk.Result, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, t Task) (chunk.Result, error)

func (f ProcessorFunc) Process(ctx context.Context, t Task) (chunk.Result, error) { return f(ctx, t) }

// Future resolves once with the task's result.
type Future struct {
	done chan struct{}
	res  chunk.Result
	err  error
}

func newFuture() *Future { return &Future{done: make(chan struct{})} }

func (f *Future) resolve(res chunk.Result, err error) {
	f.res, f.err = res, err
	close(f.done)
}

// Done is closed when the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result blocks until the task finishes.
func (f *Future) Result() (chunk.Result, error) {
	<-f.done
	return f.res, f.err
}

type Options struct {
	// Capacity is the number of workers started up front.
	Capacity  int
	Processor Processor
	// Limiter is shared by every Dispatch call. Defaults to a wait-mode
	// limiter sized to Capacity.
	Limiter *limiter.Limiter
}

type job struct {
	ctx  context.Context
	task Task
	fut  *Future
}

// Pool owns Capacity long-lived workers fed from a bounded queue. Admission
// through the shared limiter keeps the total number of queued and running
// tasks at or below Capacity across all callers.
type Pool struct {
	capacity int
	proc     Processor
	lim      *limiter.Limiter
	jobs     chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(opts Options) *Pool {
	if opts.Capacity < 1 {
		opts.Capacity = 1
	}
	if opts.Limiter == nil {
		opts.Limiter = limiter.New(limiter.Options{Capacity: opts.Capacity})
	}
	p := &Pool{
		capacity: opts.Capacity,
		proc:     opts.Processor,
		lim:      opts.Limiter,
		jobs:     make(chan job, opts.Capacity),
	}
	for i := 0; i < p.capacity; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}
	metrics.SetPoolCapacity(p.capacity)
	return p
}

// Capacity returns the number of workers.
func (p *Pool) Capacity() int { return p.capacity }

// Dispatch admits the tasks as a group and queues them in order. It returns
// one future per task, in task order. If admission fails nothing is queued.
// Tasks still queued when ctx ends resolve with ctx's error without running.
func (p *Pool) Dispatch(ctx context.Context, tasks []Task) ([]*Future, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	release, err := p.lim.Allow(ctx, len(tasks))
	if err != nil {
		return nil, err
	}

	futures := make([]*Future, len(tasks))
	for i := range futures {
		futures[i] = newFuture()
	}
	go func() {
		for _, f := range futures {
			<-f.done
		}
		release()
	}()

	p.mu.RLock()
	defer p.mu.RUnlock()
	for i, t := range tasks {
		if p.closed {
			futures[i].resolve(chunk.Result{Range: t.Range}, ErrPoolClosed)
			continue
		}
		select {
		case p.jobs <- job{ctx: ctx, task: t, fut: futures[i]}:
		case <-ctx.Done():
			futures[i].resolve(chunk.Result{Range: t.Range}, ctx.Err())
		}
	}
	return futures, nil
}

// Close stops accepting work and waits for the workers to drain the queue.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
	log.Info().Msg("OCR worker pool stopped")
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	for j := range p.jobs {
		if err := j.ctx.Err(); err != nil {
			metrics.ObserveChunk("cancelled", 0)
			j.fut.resolve(chunk.Result{Range: j.task.Range}, err)
			continue
		}
		res, err := p.run(id, j)
		j.fut.resolve(res, err)
	}
}

func (p *Pool) run(id int, j job) (res chunk.Result, err error) {
	metrics.WorkerBusy()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
		metrics.WorkerIdle()
		result := "success"
		switch {
		case err == nil:
		case j.ctx.Err() != nil:
			result = "cancelled"
		default:
			result = "failed"
		}
		metrics.ObserveChunk(result, time.Since(start))
		log.Debug().
			Int("worker", id).
			Str("doc_id", j.task.DocumentID).
			Str("chunk", j.task.Range.String()).
			Dur("duration", time.Since(start)).
			Str("result", result).
			Msg("chunk task finished")
	}()
	return p.proc.Process(j.ctx, j.task)
}
