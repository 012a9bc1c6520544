// Package pool implements the fixed-size worker pool that the block
// orchestrator uses to compress independent dictionary blocks concurrently
// (§4.6: "a bounded pool of worker goroutines, one task per independently
// decodable block, with ordered assembly of the output").
//
// The design generalizes the mtWriter/mtwWorker/mtwStream pattern: workers
// are spawned lazily up to a configured limit, fed through a buffered
// channel, and the first error from any worker cancels every other task
// still in flight.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is a unit of work submitted to a Pool, such as compressing one
// block. It returns only an error; a job passes any output back itself,
// for example through an Assembler.
type Job func(ctx context.Context) error

// Pool runs up to Workers jobs concurrently and reports the first error
// encountered by any of them. It is a thin, typed wrapper over
// golang.org/x/sync/errgroup sized the way mtWriter sized its own worker
// goroutines: lazily, up to a fixed cap, never more than there is work.
type Pool struct {
	workers int
	g       *errgroup.Group
	ctx     context.Context
	sem     chan struct{}
}

// New creates a Pool that runs at most workers jobs at once. workers <= 0
// is treated as 1.
func New(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	return &Pool{
		workers: workers,
		g:       g,
		ctx:     ctx,
		sem:     make(chan struct{}, workers),
	}
}

// Submit schedules job to run, blocking only if all worker slots are busy.
// If an earlier job has already failed, Submit may skip starting job and
// return immediately; call Wait to observe the first error.
func (p *Pool) Submit(job Job) {
	select {
	case p.sem <- struct{}{}:
	case <-p.ctx.Done():
		return
	}
	p.g.Go(func() error {
		defer func() { <-p.sem }()
		return job(p.ctx)
	})
}

// Wait blocks until every submitted job has finished and returns the first
// non-nil error returned by any of them, if any.
func (p *Pool) Wait() error {
	return p.g.Wait()
}

// Context returns the pool's context, which is cancelled as soon as any
// job returns a non-nil error, so in-flight jobs can observe cancellation
// and stop early.
func (p *Pool) Context() context.Context {
	return p.ctx
}
