package operations

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"
)

// Sequence executes its child operations one after another in insertion order
// and reverts them in reverse order.
//
// If a child fails to execute, the remaining children are not executed and the
// sequence does not become executed; the children executed before the failure
// stay executed until reverted or cleaned up.
type Sequence struct {
	base
	children
	reversed []Operation
	executed atomic.Bool
}

var _ Collection = (*Sequence)(nil)

// NewSequence returns an empty Sequence bound to the default pool unless
// WithPool is given.
func NewSequence(opts ...Option) *Sequence {
	return &Sequence{
		base: newBase("Sequence", newOptions(opts)),
	}
}

// String returns the display name and the number of children.
func (s *Sequence) String() string {
	return fmt.Sprintf("%s(%d items)", s.name, len(s.ops))
}

// AddExecute appends op and executes it immediately, so a fixture can be built
// up step by step while every step is still covered by the sequence cleanup.
func (s *Sequence) AddExecute(ctx context.Context, op Operation) error {
	if op == nil {
		return nil
	}
	if err := s.Add(op); err != nil {
		return err
	}

	return op.Execute(ctx)
}

// Finish implements Collection. Once finished, a non-empty sequence whose
// children are all executed counts as executed, which is the case for
// sequences built with AddExecute.
func (s *Sequence) Finish() {
	if !s.finished {
		s.finished = true
		s.reversed = slices.Clone(s.ops)
		slices.Reverse(s.reversed)
	}
	if s.executed.Load() || len(s.ops) == 0 {
		return
	}
	for _, op := range s.ops {
		if !op.IsExecuted() {
			return
		}
	}
	s.executed.Store(true)
}

// IsExecuted reports whether the last Execute ran every child successfully and
// the sequence has not been reverted since. Partially executed sequences are
// not executed.
func (s *Sequence) IsExecuted() bool {
	return s.executed.Load()
}

// Execute implements Operation.
func (s *Sequence) Execute(ctx context.Context) error {
	s.Finish()
	if err := s.checkExecute(s.executed.Load()); err != nil {
		return err
	}
	start := time.Now()
	s.lggr.Infow("Executing sequence", "id", s.id, "operation", s.String())

	for _, op := range s.ops {
		if err := op.Execute(ctx); err != nil {
			s.lggr.Errorw("Sequence child failed to execute", "id", s.id, "child", op.String(), "error", err)
			s.record(ActionExecute, start, s.executed.Load(), err)

			return err
		}
	}
	s.executed.Store(true)

	err := s.validators.validateExecution(ctx, s.pool, s).Wait()
	s.record(ActionExecute, start, s.executed.Load(), err)

	return err
}

// ExecuteAsync implements Operation.
func (s *Sequence) ExecuteAsync(ctx context.Context) *Future {
	return asyncOf(ctx, s.Execute)
}

// Revert implements Operation. Children that are no longer executed, e.g.
// because they were reverted individually, are skipped. Revert stops at the
// first failure and the sequence stays executed, leaving the children that
// were not reverted yet in place for inspection or a later Revert.
func (s *Sequence) Revert(ctx context.Context) error {
	s.Finish()
	if err := s.checkRevert(s.executed.Load()); err != nil {
		return err
	}
	start := time.Now()
	s.lggr.Infow("Reverting sequence", "id", s.id, "operation", s.String())

	for _, op := range s.reversed {
		if !op.IsExecuted() {
			continue
		}
		if err := op.Revert(ctx); err != nil {
			s.lggr.Errorw("Sequence child failed to revert", "id", s.id, "child", op.String(), "error", err)
			s.record(ActionRevert, start, s.executed.Load(), err)

			return err
		}
	}
	s.executed.Store(false)

	err := s.validators.validateRevert(ctx, s.pool, s).Wait()
	s.record(ActionRevert, start, s.executed.Load(), err)

	return err
}

// RevertAsync implements Operation.
func (s *Sequence) RevertAsync(ctx context.Context) *Future {
	return asyncOf(ctx, s.Revert)
}

// Cleanup implements Operation. Every child is cleaned up exactly once in
// reverse order, whatever happened before, and the child list is released.
func (s *Sequence) Cleanup(ctx context.Context) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.Finish()
	start := time.Now()
	s.lggr.Infow("Cleaning sequence", "id", s.id, "operation", s.String())

	for _, op := range s.reversed {
		op.Cleanup(ctx)
	}
	s.executed.Store(false)
	s.ops = nil
	s.reversed = nil

	err := s.validators.validateCleanup(ctx, s.pool, s).Wait()
	if err != nil {
		s.suppress("validate", err)
	}
	s.record(ActionCleanup, start, s.executed.Load(), err)
}

// CleanupAsync implements Operation.
func (s *Sequence) CleanupAsync(ctx context.Context) *Future {
	return asyncOf(ctx, func(ctx context.Context) error {
		s.Cleanup(ctx)
		return nil
	})
}

// Close implements io.Closer. It always returns nil.
func (s *Sequence) Close() error {
	s.Cleanup(context.Background())
	return nil
}
