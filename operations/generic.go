package operations

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// GenericFunc is a step of a Generic operation. It receives the shared data
// value of the operation.
type GenericFunc[T any] func(ctx context.Context, data T) error

// Generic is an operation assembled from functions at runtime. Execute
// functions run in the order they were added; revert functions run in reverse
// order, and only if the execute phase completed without errors.
//
// It is useful for one-off fixture steps, or for linking two operations
// together through the shared data value.
type Generic[T any] struct {
	*SyncOperation
	impl *genericImpl[T]
}

// NewGeneric creates a Generic operation around data. Use WithName to set the
// name shown in logs.
func NewGeneric[T any](data T, opts ...Option) *Generic[T] {
	impl := &genericImpl[T]{data: data}

	return &Generic[T]{
		SyncOperation: NewSync(impl, opts...),
		impl:          impl,
	}
}

// Data returns the shared data value.
func (g *Generic[T]) Data() T {
	return g.impl.data
}

// AddExecuteFunc appends fn to the execute phase. It fails with
// ErrInvalidState once the operation is executed.
func (g *Generic[T]) AddExecuteFunc(fn GenericFunc[T]) error {
	g.impl.mu.Lock()
	defer g.impl.mu.Unlock()

	if g.impl.executed.Load() {
		return fmt.Errorf("add execute function to executed operation %s: %w", g, ErrInvalidState)
	}
	g.impl.executeFns = append(g.impl.executeFns, fn)

	return nil
}

// AddRevertFunc adds fn to the revert phase. The last function added is the
// first one called. Functions added while the operation is executed take
// effect from the next execute.
func (g *Generic[T]) AddRevertFunc(fn GenericFunc[T]) {
	g.impl.mu.Lock()
	defer g.impl.mu.Unlock()

	g.impl.revertFns = slices.Insert(g.impl.revertFns, 0, fn)
}

type genericImpl[T any] struct {
	mu         sync.Mutex
	data       T
	executeFns []GenericFunc[T]
	revertFns  []GenericFunc[T]
	// pending holds the revert functions not called yet for the current
	// execution. It is consumed front to back so that a revert that failed
	// part way resumes where it stopped.
	pending  []GenericFunc[T]
	executed atomic.Bool
}

func (g *genericImpl[T]) String() string {
	return "Generic"
}

func (g *genericImpl[T]) IsExecuted() bool {
	return g.executed.Load()
}

func (g *genericImpl[T]) ExecuteImpl(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, fn := range g.executeFns {
		if err := fn(ctx, g.data); err != nil {
			return err
		}
	}
	g.pending = slices.Clone(g.revertFns)
	if !g.executed.CompareAndSwap(false, true) {
		return fmt.Errorf("generic operation: %w", ErrInvalidState)
	}

	return nil
}

func (g *genericImpl[T]) RevertImpl(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for len(g.pending) > 0 {
		if err := g.pending[0](ctx, g.data); err != nil {
			return err
		}
		g.pending = g.pending[1:]
	}
	g.pending = nil
	if !g.executed.CompareAndSwap(true, false) {
		return fmt.Errorf("generic operation: %w", ErrInvalidState)
	}

	return nil
}

// CleanupImpl calls every remaining revert function, continuing past
// failures. The failures are joined into the returned error.
func (g *genericImpl[T]) CleanupImpl(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	for _, fn := range g.pending {
		if err := fn(ctx, g.data); err != nil {
			errs = append(errs, err)
		}
	}
	g.pending = nil
	g.executed.Store(false)

	return errors.Join(errs...)
}
