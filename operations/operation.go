package operations

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/smartcontractkit/test-operations/pkg/logger"
)

var (
	// ErrInvalidState is returned when Execute is called on an executed operation,
	// or Revert on an operation that is not executed. It marks an out-of-order call
	// rather than a failure of the action itself.
	ErrInvalidState = errors.New("operation in invalid state")

	// ErrClosed is returned by Execute and Revert after the operation was cleaned up.
	ErrClosed = fmt.Errorf("%w: operation is closed", ErrInvalidState)

	// ErrFinished is returned when adding a child to a composite that has started executing.
	ErrFinished = errors.New("composite is finished and cannot be modified")
)

// Operation is a reversible unit of work. It is in one of two states: executed
// or not. Execute moves it to executed, Revert moves it back.
//
// Validators attached to an operation run after a successful execute or revert
// action. A failed validation is returned to the caller but does not undo the
// state transition.
//
// Cleanup is the terminal teardown: it reverts the operation if needed and
// suppresses every error. An operation cannot be executed again after Cleanup.
type Operation interface {
	fmt.Stringer

	// ID returns an identifier that is unique to this operation instance.
	ID() string

	// Execute performs the action and runs the execution validators.
	Execute(ctx context.Context) error
	// ExecuteAsync is the asynchronous form of Execute.
	ExecuteAsync(ctx context.Context) *Future

	// Revert undoes the action and runs the revert validators.
	Revert(ctx context.Context) error
	// RevertAsync is the asynchronous form of Revert.
	RevertAsync(ctx context.Context) *Future

	// IsExecuted reports whether the operation needs to be reverted or cleaned up.
	IsExecuted() bool

	// Cleanup reverts the operation if it is executed, never returning an error.
	Cleanup(ctx context.Context)
	// CleanupAsync is the asynchronous form of Cleanup. Its Future always resolves to nil.
	CleanupAsync(ctx context.Context) *Future
	// Close calls Cleanup with a background context and always returns nil.
	Close() error

	AddValidator(v Validator)
	// RemoveValidators removes every attached validator for which match returns
	// true, and reports whether any was removed.
	RemoveValidators(match func(Validator) bool) bool
	RemoveAllValidators()
}

// Option configures the shared settings of an operation.
type Option func(*options)

type options struct {
	name     string
	pool     Pool
	lggr     logger.Logger
	reporter Reporter
	retry    RetryPolicy
}

// WithName sets the display name returned by String.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithPool sets the pool used for async actions and validator hooks.
// The process-wide DefaultPool is used otherwise.
func WithPool(p Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithLogger sets the logger. The process-wide DefaultLogger is used otherwise.
func WithLogger(lggr logger.Logger) Option {
	return func(o *options) {
		o.lggr = lggr
	}
}

// WithReporter records every lifecycle action of the operation in r.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pool == nil {
		o.pool = DefaultPool()
	}
	if o.lggr == nil {
		o.lggr = DefaultLogger()
	}

	return o
}

// base holds the state shared by every operation implementation in this package.
type base struct {
	id         string
	name       string
	pool       Pool
	lggr       logger.Logger
	reporter   Reporter
	validators validatorSet
	closed     atomic.Bool
}

func newBase(name string, o options) base {
	if o.name != "" {
		name = o.name
	}

	return base{
		id:       uuid.New().String(),
		name:     name,
		pool:     o.pool,
		lggr:     o.lggr,
		reporter: o.reporter,
	}
}

// ID returns the operation ID.
func (b *base) ID() string {
	return b.id
}

// String returns the operation display name.
func (b *base) String() string {
	return b.name
}

// AddValidator attaches v to the operation.
func (b *base) AddValidator(v Validator) {
	b.validators.add(v)
}

// RemoveValidators removes the validators matched by match.
func (b *base) RemoveValidators(match func(Validator) bool) bool {
	return b.validators.remove(match)
}

// RemoveAllValidators detaches every validator.
func (b *base) RemoveAllValidators() {
	b.validators.clear()
}

func (b *base) checkExecute(executed bool) error {
	if b.closed.Load() {
		return fmt.Errorf("execute %s: %w", b.name, ErrClosed)
	}
	if executed {
		return fmt.Errorf("execute called on executed operation %s: %w", b.name, ErrInvalidState)
	}

	return nil
}

func (b *base) checkRevert(executed bool) error {
	if b.closed.Load() {
		return fmt.Errorf("revert %s: %w", b.name, ErrClosed)
	}
	if !executed {
		return fmt.Errorf("revert called on unexecuted operation %s: %w", b.name, ErrInvalidState)
	}

	return nil
}

// suppress logs an error swallowed during cleanup.
func (b *base) suppress(stage string, err error) {
	b.lggr.Debugw("Cleanup error suppressed", "id", b.id, "operation", b.name, "stage", stage, "error", err)
}

// record adds a report for a finished lifecycle action. Reporter failures are
// logged and never returned.
func (b *base) record(action Action, start time.Time, executed bool, err error) {
	if b.reporter == nil {
		return
	}
	report := NewReport(b.id, b.name, action, executed, time.Since(start), err)
	if rerr := b.reporter.AddReport(report); rerr != nil {
		b.lggr.Warnw("Failed to add report", "id", b.id, "operation", b.name, "action", action, "error", rerr)
	}
}

// recorded returns a Future that records f's outcome once it completes.
func (b *base) recorded(action Action, start time.Time, isExecuted func() bool, f *Future) *Future {
	if b.reporter == nil {
		return f
	}

	return whenDone(f, func(err error) {
		b.record(action, start, isExecuted(), err)
	})
}
