package operations

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/smartcontractkit/test-operations/pkg/logger"
)

// Pool executes lifecycle work: leaf actions started through the async API and
// validator hooks. Submit must not block the caller.
type Pool interface {
	Submit(fn func())
}

// WorkerPool is a Pool that runs every task on its own goroutine, bounding the
// number of tasks running at once.
//
// Composites never run their coordination on a Pool, so a bounded WorkerPool
// cannot deadlock on nested sequences and groups.
type WorkerPool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool creates a WorkerPool that runs at most maxWorkers tasks at once.
// A maxWorkers of zero or less means unbounded.
func NewPool(maxWorkers int) *WorkerPool {
	p := &WorkerPool{}
	if maxWorkers > 0 {
		p.sem = semaphore.NewWeighted(int64(maxWorkers))
	}

	return p
}

// Submit schedules fn. Tasks waiting for a free worker wait on their own
// goroutine, never on the caller's.
func (p *WorkerPool) Submit(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.sem != nil {
			// Acquire with a background context cannot fail.
			_ = p.sem.Acquire(context.Background(), 1)
			defer p.sem.Release(1)
		}
		fn()
	}()
}

// Wait blocks until every submitted task has returned.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

var (
	defaultPool     atomic.Pointer[Pool]
	defaultPoolOnce sync.Once
	defaultLogger   atomic.Pointer[logger.Logger]
)

// DefaultPool returns the process-wide Pool, creating an unbounded WorkerPool
// on first use.
func DefaultPool() Pool {
	defaultPoolOnce.Do(func() {
		var p Pool = NewPool(0)
		defaultPool.CompareAndSwap(nil, &p)
	})

	return *defaultPool.Load()
}

// SetDefaultPool replaces the process-wide Pool used by operations created
// without WithPool.
//
// It is meant to be called once while bootstrapping a test suite. It must not
// be called while operations are in flight: operations capture the pool when
// they are constructed.
func SetDefaultPool(p Pool) {
	defaultPoolOnce.Do(func() {})
	defaultPool.Store(&p)
}

// DefaultLogger returns the process-wide logger, a no-op logger unless
// SetDefaultLogger was called.
func DefaultLogger() logger.Logger {
	if l := defaultLogger.Load(); l != nil {
		return *l
	}

	return logger.Nop()
}

// SetDefaultLogger replaces the process-wide logger. The same bootstrap-only
// precondition as SetDefaultPool applies.
func SetDefaultLogger(lggr logger.Logger) {
	defaultLogger.Store(&lggr)
}
