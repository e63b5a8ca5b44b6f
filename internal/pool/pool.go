// Package pool implements WorkerPool: a set of IndexWorkers registered with
// a readiness fan-in, yielding the next writable worker to the scheduling
// loop. Go's select statement cannot range over a slice of channels, so the
// fan-in is built on reflect.Select, the standard idiom for selecting
// across a dynamically-sized channel set.
package pool

import (
	"context"
	"reflect"
)

// Worker is the subset of IndexWorker the pool and its scheduling loop
// depend on. Defined here, rather than depending on the worker package
// directly, so the pool can be driven by a fake in tests with no database.
type Worker interface {
	Ready() <-chan struct{}
	IsDone() bool
	StartSlice(ctx context.Context, ids []int64, batchSize int) error
	ContinueSlice(ctx context.Context) (int, error)
	Close(ctx context.Context) error
}

// WorkerPool holds a fixed set of workers for the lifetime of one indexing
// pass. It is a context-scoped resource: Close must run on every exit path,
// including error paths, so that no worker connection leaks.
type WorkerPool struct {
	workers []Worker
}

// New constructs a pool of the given workers. The pool takes ownership of
// closing them.
func New(workers []Worker) *WorkerPool {
	return &WorkerPool{workers: workers}
}

// HasWorkers reports whether the pool still holds any worker.
func (p *WorkerPool) HasWorkers() bool {
	return len(p.workers) > 0
}

// NextFreeWorker blocks until at least one worker is writable and returns
// it. Fairness is not strict, but reflect.Select's pseudo-random case
// selection among ready channels keeps any one worker from starving the
// rest, satisfying the no-starvation requirement without extra bookkeeping.
//
// A worker that has no command in flight is writable immediately, whether
// or not it has ever completed one — a freshly dialed connection's socket
// is writable from the first instant, it simply never signals on Ready
// because nothing has drained yet. So every call first polls IsDone()
// directly before falling back to the channel fan-in, which only ever
// fires on a *transition* into the drained state.
func (p *WorkerPool) NextFreeWorker(ctx context.Context) (Worker, error) {
	if len(p.workers) == 0 {
		return nil, errNoWorkers
	}

	for _, w := range p.workers {
		if w.IsDone() {
			return w, nil
		}
	}

	cases := make([]reflect.SelectCase, 0, len(p.workers)+1)
	for _, w := range p.workers {
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(w.Ready()),
		})
	}
	cases = append(cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(ctx.Done()),
	})

	chosen, _, _ := reflect.Select(cases)
	if chosen == len(p.workers) {
		return nil, ctx.Err()
	}
	return p.workers[chosen], nil
}

// ShutdownWorker unregisters and closes w, used when it signals terminal
// idle during drain.
func (p *WorkerPool) ShutdownWorker(ctx context.Context, w Worker) error {
	for i, cand := range p.workers {
		if cand == w {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			break
		}
	}
	return w.Close(ctx)
}

// Close closes every remaining worker, tolerating errors from individual
// workers so the rest still get a chance to release their connection.
func (p *WorkerPool) Close(ctx context.Context) error {
	var first error
	for _, w := range p.workers {
		if err := w.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	p.workers = nil
	return first
}

var errNoWorkers = poolError("pool: no workers registered")

type poolError string

func (e poolError) Error() string { return string(e) }
