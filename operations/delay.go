package operations

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// MaxDelay is the longest delay a Delay operation accepts.
const MaxDelay = 100 * time.Minute

// Delay is an operation that waits during execute and revert. It is used to
// give an external system time to settle between fixture steps.
type Delay struct {
	*SyncOperation
	impl *delayImpl
}

// NewDelay creates a Delay operation. Both delays must be between zero and
// MaxDelay.
func NewDelay(executeDelay, revertDelay time.Duration, opts ...Option) (*Delay, error) {
	if err := checkDelay(executeDelay); err != nil {
		return nil, err
	}
	if err := checkDelay(revertDelay); err != nil {
		return nil, err
	}
	impl := &delayImpl{executeDelay: executeDelay, revertDelay: revertDelay}

	return &Delay{
		SyncOperation: NewSync(impl, opts...),
		impl:          impl,
	}, nil
}

// ExecuteDelay returns the delay applied on execute.
func (d *Delay) ExecuteDelay() time.Duration {
	return d.impl.executeDelay
}

// RevertDelay returns the delay applied on revert.
func (d *Delay) RevertDelay() time.Duration {
	return d.impl.revertDelay
}

func checkDelay(d time.Duration) error {
	if d < 0 || d > MaxDelay {
		return fmt.Errorf("delay %v must be between 0 and %v", d, MaxDelay)
	}

	return nil
}

type delayImpl struct {
	executeDelay time.Duration
	revertDelay  time.Duration
	executed     atomic.Bool
}

func (d *delayImpl) String() string {
	return fmt.Sprintf("Delay(%v/%v)", d.executeDelay, d.revertDelay)
}

func (d *delayImpl) IsExecuted() bool {
	return d.executed.Load()
}

func (d *delayImpl) ExecuteImpl(ctx context.Context) error {
	if err := sleep(ctx, d.executeDelay); err != nil {
		return err
	}
	if !d.executed.CompareAndSwap(false, true) {
		return fmt.Errorf("delay already executed: %w", ErrInvalidState)
	}

	return nil
}

func (d *delayImpl) RevertImpl(ctx context.Context) error {
	if err := sleep(ctx, d.revertDelay); err != nil {
		return err
	}
	if !d.executed.CompareAndSwap(true, false) {
		return fmt.Errorf("delay not executed: %w", ErrInvalidState)
	}

	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
