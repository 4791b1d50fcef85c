// Package executor runs engine work on a bounded set of background goroutines.
package executor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the number of concurrent jobs used when none is given.
const DefaultLimit = 8

// Pool runs jobs under its own lifetime context. Jobs are never cancelled
// by the context of whoever submitted them.
type Pool struct {
	ctx    context.Context
	group  *errgroup.Group
	starts sync.WaitGroup
}

// New creates a pool whose jobs observe ctx. At most limit jobs run at once;
// further submissions block until a slot frees up.
func New(ctx context.Context, limit int) *Pool {
	if limit <= 0 {
		limit = DefaultLimit
	}
	g := &errgroup.Group{}
	g.SetLimit(limit)
	return &Pool{ctx: ctx, group: g}
}

// Start runs fn on its own goroutine outside the limit and never blocks
// the caller. It is meant for jobs that only hand work to the engine and
// report through callbacks, so an accepted reply does not queue behind
// bounded jobs.
func (p *Pool) Start(fn func(ctx context.Context)) {
	p.starts.Add(1)
	go func() {
		defer p.starts.Done()
		defer recoverJob(nil)
		fn(p.ctx)
	}()
}

// Do runs fn in the background and waits for its result. It blocks while
// limit jobs are running. If ctx ends first,
// Do returns ctx.Err() while fn keeps running to completion.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	type result struct {
		val any
		err error
	}
	ch := make(chan result, 1)
	p.group.Go(func() error {
		var r result
		defer func() {
			ch <- r
		}()
		defer recoverJob(&r.err)
		r.val, r.err = fn(p.ctx)
		return nil
	})

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait blocks until every submitted job has returned.
func (p *Pool) Wait() {
	_ = p.group.Wait()
	p.starts.Wait()
}

func recoverJob(errp *error) {
	if r := recover(); r != nil && errp != nil {
		*errp = fmt.Errorf("job panicked: %v", r)
	}
}
