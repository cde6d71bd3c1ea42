// Package optest provides utilities for operations testing.
package optest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartcontractkit/test-operations/operations"
	"github.com/smartcontractkit/test-operations/pkg/logger"
)

// Counter weights added by CountingValidator, so that a single value tells how
// many times each hook ran.
const (
	ExecutionWeight = 1
	RevertWeight    = 1_000
	CleanupWeight   = 1_000_000
)

// Options returns the operation options for tests: a test logger and a fresh
// memory reporter. The reporter is returned so tests can inspect it.
func Options(t *testing.T, opts ...operations.Option) ([]operations.Option, *operations.MemoryReporter) {
	t.Helper()

	reporter := operations.NewMemoryReporter()
	base := []operations.Option{
		operations.WithLogger(logger.Test(t)),
		operations.WithReporter(reporter),
	}

	return append(base, opts...), reporter
}

// Increment is a SyncImpl that adds one to a shared counter on execute and
// subtracts one on revert, so the counter is the number of executed
// increments.
type Increment struct {
	Counter *atomic.Int64
	// Sleep is applied before each action.
	Sleep time.Duration
	// ExecuteErr and RevertErr make the corresponding action fail without
	// touching the counter.
	ExecuteErr error
	RevertErr  error

	executed atomic.Bool
	calls    atomic.Int64
}

var _ operations.SyncImpl = (*Increment)(nil)

// NewIncrement returns an Increment on counter.
func NewIncrement(counter *atomic.Int64) *Increment {
	return &Increment{Counter: counter}
}

func (i *Increment) String() string {
	return "Increment"
}

// Calls returns the number of times an action was invoked, failed or not.
func (i *Increment) Calls() int64 {
	return i.calls.Load()
}

func (i *Increment) IsExecuted() bool {
	return i.executed.Load()
}

func (i *Increment) ExecuteImpl(ctx context.Context) error {
	i.calls.Add(1)
	if err := pause(ctx, i.Sleep); err != nil {
		return err
	}
	if i.ExecuteErr != nil {
		return i.ExecuteErr
	}
	if !i.executed.CompareAndSwap(false, true) {
		return fmt.Errorf("increment: %w", operations.ErrInvalidState)
	}
	i.Counter.Add(1)

	return nil
}

func (i *Increment) RevertImpl(ctx context.Context) error {
	i.calls.Add(1)
	if err := pause(ctx, i.Sleep); err != nil {
		return err
	}
	if i.RevertErr != nil {
		return i.RevertErr
	}
	if !i.executed.CompareAndSwap(true, false) {
		return fmt.Errorf("increment: %w", operations.ErrInvalidState)
	}
	i.Counter.Add(-1)

	return nil
}

// AsyncIncrement is the AsyncImpl form of Increment. Its actions run on Pool.
type AsyncIncrement struct {
	Increment
	Pool operations.Pool
}

var _ operations.AsyncImpl = (*AsyncIncrement)(nil)

// NewAsyncIncrement returns an AsyncIncrement on counter whose actions run on pool.
func NewAsyncIncrement(counter *atomic.Int64, pool operations.Pool) *AsyncIncrement {
	return &AsyncIncrement{Increment: Increment{Counter: counter}, Pool: pool}
}

func (a *AsyncIncrement) String() string {
	return "AsyncIncrement"
}

func (a *AsyncIncrement) ExecuteImpl(ctx context.Context) *operations.Future {
	return operations.Go(a.Pool, func() error {
		return a.Increment.ExecuteImpl(ctx)
	})
}

func (a *AsyncIncrement) RevertImpl(ctx context.Context) *operations.Future {
	return operations.Go(a.Pool, func() error {
		return a.Increment.RevertImpl(ctx)
	})
}

// CountingValidator adds a hook specific weight to Counter each time one of
// its hooks runs. A configured error is returned after counting.
type CountingValidator struct {
	Counter      *atomic.Int64
	ExecutionErr error
	RevertErr    error
	CleanupErr   error
}

var _ operations.Validator = (*CountingValidator)(nil)

// NewCountingValidator returns a CountingValidator on counter.
func NewCountingValidator(counter *atomic.Int64) *CountingValidator {
	return &CountingValidator{Counter: counter}
}

func (v *CountingValidator) ValidateExecution(
	ctx context.Context, pool operations.Pool, _ operations.Operation,
) *operations.Future {
	return v.count(pool, ExecutionWeight, v.ExecutionErr)
}

func (v *CountingValidator) ValidateRevert(
	ctx context.Context, pool operations.Pool, _ operations.Operation,
) *operations.Future {
	return v.count(pool, RevertWeight, v.RevertErr)
}

func (v *CountingValidator) ValidateCleanup(
	ctx context.Context, pool operations.Pool, _ operations.Operation,
) *operations.Future {
	return v.count(pool, CleanupWeight, v.CleanupErr)
}

func (v *CountingValidator) count(pool operations.Pool, weight int64, err error) *operations.Future {
	return operations.Go(pool, func() error {
		v.Counter.Add(weight)
		return err
	})
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
