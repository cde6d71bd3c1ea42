package operations

import (
	"context"
	"time"
)

// AsyncImpl is implemented by leaf operations whose actions are naturally
// asynchronous. Each action returns a Future that completes when the action
// is done; a nil Future means the action completed successfully.
//
// The same state-tracking rules as SyncImpl apply.
type AsyncImpl interface {
	ExecuteImpl(ctx context.Context) *Future
	RevertImpl(ctx context.Context) *Future
	IsExecuted() bool
}

// AsyncOperation adapts an AsyncImpl to the full Operation contract.
// Validators are chained onto the Future returned by the action, and the
// blocking methods wait on the chained Future.
type AsyncOperation struct {
	base
	impl AsyncImpl
}

var _ Operation = (*AsyncOperation)(nil)

// NewAsync creates an operation around impl. If impl implements fmt.Stringer
// it provides the default display name. WithRetry has no effect on async
// operations.
func NewAsync(impl AsyncImpl, opts ...Option) *AsyncOperation {
	return &AsyncOperation{
		base: newBase(implName(impl), newOptions(opts)),
		impl: impl,
	}
}

// Impl returns the wrapped implementation.
func (o *AsyncOperation) Impl() AsyncImpl {
	return o.impl
}

// IsExecuted implements Operation.
func (o *AsyncOperation) IsExecuted() bool {
	return o.impl.IsExecuted()
}

// Execute implements Operation.
func (o *AsyncOperation) Execute(ctx context.Context) error {
	return o.ExecuteAsync(ctx).Wait()
}

// ExecuteAsync implements Operation.
func (o *AsyncOperation) ExecuteAsync(ctx context.Context) *Future {
	if err := o.checkExecute(o.impl.IsExecuted()); err != nil {
		return Resolved(err)
	}
	start := time.Now()
	o.lggr.Infow("Executing operation", "id", o.id, "operation", o.name, "mode", "async")

	f := Then(orResolved(o.impl.ExecuteImpl(ctx)), func() *Future {
		return o.validators.validateExecution(ctx, o.pool, o)
	})

	return o.recorded(ActionExecute, start, o.impl.IsExecuted, f)
}

// Revert implements Operation.
func (o *AsyncOperation) Revert(ctx context.Context) error {
	return o.RevertAsync(ctx).Wait()
}

// RevertAsync implements Operation.
func (o *AsyncOperation) RevertAsync(ctx context.Context) *Future {
	if err := o.checkRevert(o.impl.IsExecuted()); err != nil {
		return Resolved(err)
	}

	return o.recorded(ActionRevert, time.Now(), o.impl.IsExecuted, o.revertAsync(ctx))
}

func (o *AsyncOperation) revertAsync(ctx context.Context) *Future {
	o.lggr.Infow("Reverting operation", "id", o.id, "operation", o.name, "mode", "async")

	return Then(orResolved(o.impl.RevertImpl(ctx)), func() *Future {
		return o.validators.validateRevert(ctx, o.pool, o)
	})
}

// Cleanup implements Operation.
func (o *AsyncOperation) Cleanup(ctx context.Context) {
	_ = o.CleanupAsync(ctx).Wait()
}

// CleanupAsync implements Operation.
func (o *AsyncOperation) CleanupAsync(ctx context.Context) *Future {
	if !o.closed.CompareAndSwap(false, true) {
		return Resolved(nil)
	}
	start := time.Now()
	o.lggr.Infow("Cleaning operation", "id", o.id, "operation", o.name, "mode", "async")

	reverted := Resolved(nil)
	if o.impl.IsExecuted() {
		reverted = o.revertAsync(ctx)
	}

	out, complete := NewFuture()
	go func() {
		err := reverted.Wait()
		if err != nil {
			o.suppress("revert", err)
		}
		if verr := o.validators.validateCleanup(ctx, o.pool, o).Wait(); verr != nil {
			o.suppress("validate", verr)
			if err == nil {
				err = verr
			}
		}
		o.record(ActionCleanup, start, o.impl.IsExecuted(), err)
		complete(nil)
	}()

	return out
}

// Close implements io.Closer. It always returns nil.
func (o *AsyncOperation) Close() error {
	o.Cleanup(context.Background())
	return nil
}

func orResolved(f *Future) *Future {
	if f == nil {
		return Resolved(nil)
	}

	return f
}
