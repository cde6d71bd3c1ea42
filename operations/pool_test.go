package operations

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/test-operations/pkg/logger"
)

func Test_WorkerPool_Bounded(t *testing.T) {
	t.Parallel()

	const maxWorkers = 3
	pool := NewPool(maxWorkers)

	var running, peak atomic.Int64
	for range 20 {
		pool.Submit(func() {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	pool.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(maxWorkers))
	assert.Positive(t, peak.Load())
}

func Test_WorkerPool_SubmitDoesNotBlock(t *testing.T) {
	t.Parallel()

	pool := NewPool(1)
	release := make(chan struct{})
	pool.Submit(func() { <-release })

	submitted := make(chan struct{})
	go func() {
		pool.Submit(func() {})
		close(submitted)
	}()

	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a busy pool")
	}
	close(release)
	pool.Wait()
}

func Test_WorkerPool_Unbounded(t *testing.T) {
	t.Parallel()

	pool := NewPool(0)
	var wg sync.WaitGroup
	wg.Add(10)
	// Every task waits for all the others, which only works without a bound.
	for range 10 {
		pool.Submit(func() {
			wg.Done()
			wg.Wait()
		})
	}
	pool.Wait()
}

// Not parallel: replaces the process-wide defaults.
func Test_Defaults(t *testing.T) {
	prevPool := DefaultPool()
	prevLogger := DefaultLogger()
	t.Cleanup(func() {
		SetDefaultPool(prevPool)
		SetDefaultLogger(prevLogger)
	})

	require.NotNil(t, prevPool)
	require.NotNil(t, prevLogger)

	pool := NewPool(2)
	SetDefaultPool(pool)
	assert.Same(t, pool, DefaultPool())

	lggr := logger.Test(t)
	SetDefaultLogger(lggr)
	assert.Equal(t, lggr, DefaultLogger())

	o := newOptions(nil)
	assert.Same(t, pool, o.pool)
	assert.Equal(t, lggr, o.lggr)

	other := NewPool(1)
	o = newOptions([]Option{WithPool(other)})
	assert.Same(t, other, o.pool)
}
