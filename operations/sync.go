package operations

import (
	"context"
	"fmt"
	"time"
)

// SyncImpl is implemented by leaf operations whose actions block until done.
//
// The leaf owns its executed state. It should flip a single atomic flag at the
// end of each successful action, with compare-and-swap semantics, because
// validators and composites may read IsExecuted from other goroutines.
// Actions must be safe to call on a pool goroutine.
type SyncImpl interface {
	ExecuteImpl(ctx context.Context) error
	RevertImpl(ctx context.Context) error
	IsExecuted() bool
}

// CleanupImpl is implemented by leaves that need a custom teardown instead of
// a plain revert during Cleanup. Its error is suppressed.
type CleanupImpl interface {
	CleanupImpl(ctx context.Context) error
}

// SyncOperation adapts a SyncImpl to the full Operation contract.
type SyncOperation struct {
	base
	impl  SyncImpl
	retry RetryPolicy
}

var _ Operation = (*SyncOperation)(nil)

// NewSync creates an operation around impl. If impl implements fmt.Stringer it
// provides the default display name.
func NewSync(impl SyncImpl, opts ...Option) *SyncOperation {
	o := newOptions(opts)

	return &SyncOperation{
		base:  newBase(implName(impl), o),
		impl:  impl,
		retry: o.retry,
	}
}

// Impl returns the wrapped implementation.
func (o *SyncOperation) Impl() SyncImpl {
	return o.impl
}

// IsExecuted implements Operation.
func (o *SyncOperation) IsExecuted() bool {
	return o.impl.IsExecuted()
}

// Execute implements Operation. The action runs on the calling goroutine.
func (o *SyncOperation) Execute(ctx context.Context) error {
	if err := o.checkExecute(o.impl.IsExecuted()); err != nil {
		return err
	}
	start := time.Now()
	o.lggr.Infow("Executing operation", "id", o.id, "operation", o.name)

	err := runAction(ctx, o.lggr, o.name, o.retry, o.impl.ExecuteImpl)
	if err == nil {
		err = o.validators.validateExecution(ctx, o.pool, o).Wait()
	}
	o.record(ActionExecute, start, o.impl.IsExecuted(), err)

	return err
}

// ExecuteAsync implements Operation. The action runs on the pool and the
// execution validators are chained onto its result.
func (o *SyncOperation) ExecuteAsync(ctx context.Context) *Future {
	if err := o.checkExecute(o.impl.IsExecuted()); err != nil {
		return Resolved(err)
	}
	start := time.Now()
	o.lggr.Infow("Executing operation", "id", o.id, "operation", o.name, "mode", "async")

	f := Go(o.pool, func() error {
		return runAction(ctx, o.lggr, o.name, o.retry, o.impl.ExecuteImpl)
	})
	f = Then(f, func() *Future {
		return o.validators.validateExecution(ctx, o.pool, o)
	})

	return o.recorded(ActionExecute, start, o.impl.IsExecuted, f)
}

// Revert implements Operation. The action runs on the calling goroutine.
func (o *SyncOperation) Revert(ctx context.Context) error {
	if err := o.checkRevert(o.impl.IsExecuted()); err != nil {
		return err
	}
	start := time.Now()
	err := o.revert(ctx)
	o.record(ActionRevert, start, o.impl.IsExecuted(), err)

	return err
}

func (o *SyncOperation) revert(ctx context.Context) error {
	o.lggr.Infow("Reverting operation", "id", o.id, "operation", o.name)
	if err := runAction(ctx, o.lggr, o.name, o.retry, o.impl.RevertImpl); err != nil {
		return err
	}

	return o.validators.validateRevert(ctx, o.pool, o).Wait()
}

// RevertAsync implements Operation.
func (o *SyncOperation) RevertAsync(ctx context.Context) *Future {
	if err := o.checkRevert(o.impl.IsExecuted()); err != nil {
		return Resolved(err)
	}
	start := time.Now()
	o.lggr.Infow("Reverting operation", "id", o.id, "operation", o.name, "mode", "async")

	f := Go(o.pool, func() error {
		return runAction(ctx, o.lggr, o.name, o.retry, o.impl.RevertImpl)
	})
	f = Then(f, func() *Future {
		return o.validators.validateRevert(ctx, o.pool, o)
	})

	return o.recorded(ActionRevert, start, o.impl.IsExecuted, f)
}

// Cleanup implements Operation.
func (o *SyncOperation) Cleanup(ctx context.Context) {
	if !o.closed.CompareAndSwap(false, true) {
		return
	}
	start := time.Now()
	o.lggr.Infow("Cleaning operation", "id", o.id, "operation", o.name)

	var err error
	if c, ok := o.impl.(CleanupImpl); ok {
		err = c.CleanupImpl(ctx)
	} else if o.impl.IsExecuted() {
		err = o.revert(ctx)
	}
	if err != nil {
		o.suppress("revert", err)
	}

	// The revert may have failed in the action or in a validator. Either way
	// the validators get their cleanup hook if the revert was never validated.
	if verr := o.validators.validateCleanup(ctx, o.pool, o).Wait(); verr != nil {
		o.suppress("validate", verr)
		if err == nil {
			err = verr
		}
	}
	o.record(ActionCleanup, start, o.impl.IsExecuted(), err)
}

// CleanupAsync implements Operation.
func (o *SyncOperation) CleanupAsync(ctx context.Context) *Future {
	f, complete := NewFuture()
	go func() {
		o.Cleanup(ctx)
		complete(nil)
	}()

	return f
}

// Close implements io.Closer. It always returns nil.
func (o *SyncOperation) Close() error {
	o.Cleanup(context.Background())
	return nil
}

func implName(impl any) string {
	if s, ok := impl.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("%T", impl)
}
