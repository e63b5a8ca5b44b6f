package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWorker is a minimal Worker: it reports done until armed with a ready
// signal, letting tests control exactly which worker becomes writable next.
type fakeWorker struct {
	name    string
	done    bool
	ready   chan struct{}
	closed  bool
	started [][]int64
}

func newFakeWorker(name string) *fakeWorker {
	return &fakeWorker{name: name, ready: make(chan struct{}, 1)}
}

func (f *fakeWorker) Ready() <-chan struct{} { return f.ready }
func (f *fakeWorker) IsDone() bool           { return f.done }

func (f *fakeWorker) StartSlice(ctx context.Context, ids []int64, batchSize int) error {
	f.started = append(f.started, ids)
	f.done = false
	return nil
}

func (f *fakeWorker) ContinueSlice(ctx context.Context) (int, error) {
	return -1, nil
}

func (f *fakeWorker) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeWorker) signalReady() {
	f.done = true
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func TestNextFreeWorkerReturnsImmediatelyDoneWorker(t *testing.T) {
	a := newFakeWorker("a")
	b := newFakeWorker("b")
	a.done = true
	b.done = false

	p := New([]Worker{a, b})
	w, err := p.NextFreeWorker(context.Background())
	require.NoError(t, err)
	assert.Same(t, Worker(a), w, "an already-idle worker must be returned without waiting on Ready")
}

func TestNextFreeWorkerFallsBackToReadyChannel(t *testing.T) {
	a := newFakeWorker("a")
	b := newFakeWorker("b")
	p := New([]Worker{a, b})

	go func() {
		time.Sleep(10 * time.Millisecond)
		b.signalReady()
	}()

	w, err := p.NextFreeWorker(context.Background())
	require.NoError(t, err)
	assert.Same(t, Worker(b), w)
}

func TestNextFreeWorkerReturnsContextError(t *testing.T) {
	a := newFakeWorker("a")
	p := New([]Worker{a})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.NextFreeWorker(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNextFreeWorkerNoWorkers(t *testing.T) {
	p := New(nil)
	_, err := p.NextFreeWorker(context.Background())
	assert.Error(t, err)
}

func TestShutdownWorkerRemovesFromPool(t *testing.T) {
	a := newFakeWorker("a")
	b := newFakeWorker("b")
	p := New([]Worker{a, b})

	require.NoError(t, p.ShutdownWorker(context.Background(), a))
	assert.True(t, a.closed)
	assert.False(t, p.HasWorkers() && len(p.workers) != 1, "pool must hold exactly the remaining worker")
	assert.Len(t, p.workers, 1)
	assert.Same(t, Worker(b), p.workers[0])
}

func TestCloseClosesEveryWorker(t *testing.T) {
	a := newFakeWorker("a")
	b := newFakeWorker("b")
	p := New([]Worker{a, b})

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.False(t, p.HasWorkers())
}

func TestHasWorkers(t *testing.T) {
	assert.False(t, New(nil).HasWorkers())
	assert.True(t, New([]Worker{newFakeWorker("a")}).HasWorkers())
}
