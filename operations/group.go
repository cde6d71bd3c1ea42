package operations

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// RequireAll is the default RequiredForSuccess of a Group: every child must
// execute successfully.
const RequireAll = -1

// Group executes its child operations concurrently and waits for all of them,
// whatever their outcome.
//
// By default the group fails if any child fails. SetRequiredForSuccess relaxes
// this to a minimum number of successful children; the children that succeeded
// are the ones reverted later.
type Group struct {
	base
	children
	required  int
	completed []Operation
	executed  atomic.Bool
}

var _ Collection = (*Group)(nil)

// NewGroup returns an empty Group bound to the default pool unless WithPool is
// given.
func NewGroup(opts ...Option) *Group {
	return &Group{
		base:     newBase("Group", newOptions(opts)),
		required: RequireAll,
	}
}

// String returns the display name and the number of children.
func (g *Group) String() string {
	return fmt.Sprintf("%s(%d items)", g.name, len(g.ops))
}

// RequiredForSuccess returns the number of children that must succeed for the
// group to be executed. A negative value means all of them.
func (g *Group) RequiredForSuccess() int {
	return g.required
}

// SetRequiredForSuccess sets the number of children that must succeed for the
// group to be executed. Zero means child errors are never returned; a negative
// value restores the default of requiring every child.
func (g *Group) SetRequiredForSuccess(count int) {
	g.required = count
}

// Finish implements Collection.
func (g *Group) Finish() {
	g.finished = true
}

// IsExecuted implements Operation.
func (g *Group) IsExecuted() bool {
	return g.executed.Load()
}

// Completed returns the children that executed successfully during the last
// Execute and have not been reverted by the group since.
func (g *Group) Completed() []Operation {
	return append([]Operation(nil), g.completed...)
}

// Execute implements Operation.
func (g *Group) Execute(ctx context.Context) error {
	return g.ExecuteAsync(ctx).Wait()
}

// ExecuteAsync implements Operation. Every child is started before any of them
// is awaited. When the group fails, the returned error is the error of the
// first failed child in insertion order.
func (g *Group) ExecuteAsync(ctx context.Context) *Future {
	g.Finish()
	if err := g.checkExecute(g.executed.Load()); err != nil {
		return Resolved(err)
	}
	start := time.Now()
	g.lggr.Infow("Executing group", "id", g.id, "operation", g.String(), "required", g.required)

	ops := g.ops
	futures := make([]*Future, len(ops))
	for i, op := range ops {
		futures[i] = op.ExecuteAsync(ctx)
	}

	out, complete := NewFuture()
	go func() {
		errs := waitAll(futures)
		completed := make([]Operation, 0, len(ops))
		for i, err := range errs {
			if err == nil {
				completed = append(completed, ops[i])
			} else {
				g.lggr.Debugw("Group child failed to execute", "id", g.id, "child", ops[i].String(), "error", err)
			}
		}
		g.completed = completed

		err := firstError(errs)
		if err != nil && g.required >= 0 && len(completed) >= g.required {
			g.lggr.Warnw("Group child failures tolerated",
				"id", g.id, "succeeded", len(completed), "failed", len(ops)-len(completed), "required", g.required)
			err = nil
		}
		if err == nil {
			g.executed.Store(true)
			err = g.validators.validateExecution(ctx, g.pool, g).Wait()
		}
		g.record(ActionExecute, start, g.executed.Load(), err)
		complete(err)
	}()

	return out
}

// Revert implements Operation.
func (g *Group) Revert(ctx context.Context) error {
	return g.RevertAsync(ctx).Wait()
}

// RevertAsync implements Operation. The completed children that are still
// executed are reverted concurrently and all of them run to completion. If any
// fails, the group stays executed and the first failure in insertion order is
// returned; a later Revert retries the children that are still executed.
func (g *Group) RevertAsync(ctx context.Context) *Future {
	if err := g.checkRevert(g.executed.Load()); err != nil {
		return Resolved(err)
	}
	start := time.Now()
	g.lggr.Infow("Reverting group", "id", g.id, "operation", g.String())

	var futures []*Future
	for _, op := range g.completed {
		if op.IsExecuted() {
			futures = append(futures, op.RevertAsync(ctx))
		}
	}

	out, complete := NewFuture()
	go func() {
		err := firstError(waitAll(futures))
		if err == nil {
			g.executed.Store(false)
			g.completed = nil
			err = g.validators.validateRevert(ctx, g.pool, g).Wait()
		}
		g.record(ActionRevert, start, g.executed.Load(), err)
		complete(err)
	}()

	return out
}

// Cleanup implements Operation. Every child is cleaned up concurrently, not
// only the completed ones, after which the child list is discarded.
func (g *Group) Cleanup(ctx context.Context) {
	if !g.closed.CompareAndSwap(false, true) {
		return
	}
	g.Finish()
	start := time.Now()
	g.lggr.Infow("Cleaning group", "id", g.id, "operation", g.String())

	var eg errgroup.Group
	for _, op := range g.ops {
		eg.Go(func() error {
			op.Cleanup(ctx)
			return nil
		})
	}
	_ = eg.Wait()

	g.executed.Store(false)
	g.ops = nil
	g.completed = nil

	err := g.validators.validateCleanup(ctx, g.pool, g).Wait()
	if err != nil {
		g.suppress("validate", err)
	}
	g.record(ActionCleanup, start, g.executed.Load(), err)
}

// CleanupAsync implements Operation.
func (g *Group) CleanupAsync(ctx context.Context) *Future {
	return asyncOf(ctx, func(ctx context.Context) error {
		g.Cleanup(ctx)
		return nil
	})
}

// Close implements io.Closer. It always returns nil.
func (g *Group) Close() error {
	g.Cleanup(context.Background())
	return nil
}
