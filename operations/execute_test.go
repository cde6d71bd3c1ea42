package operations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/test-operations/pkg/logger"
)

func Test_runAction(t *testing.T) {
	t.Parallel()

	errTest := errors.New("test error")

	tests := []struct {
		name          string
		policy        RetryPolicy
		failures      int
		failWith      error
		wantCalled    int
		wantErrIs     error
		wantErrString string
	}{
		{
			name:       "no retry",
			failures:   2,
			failWith:   errTest,
			wantCalled: 1,
			wantErrIs:  errTest,
		},
		{
			name:       "default retry eventual success",
			policy:     RetryPolicy{Enabled: true, Delay: time.Millisecond},
			failures:   2,
			failWith:   errTest,
			wantCalled: 3,
		},
		{
			name:       "custom retry eventual failure",
			policy:     RetryPolicy{Enabled: true, MaxAttempts: 2, Delay: time.Millisecond},
			failures:   5,
			failWith:   errTest,
			wantCalled: 2,
			wantErrIs:  errTest,
		},
		{
			name:          "unrecoverable error stops the retry",
			policy:        RetryPolicy{Enabled: true, MaxAttempts: 5, Delay: time.Millisecond},
			failures:      5,
			failWith:      NewUnrecoverableError(errTest),
			wantCalled:    1,
			wantErrString: "test error",
		},
		{
			name:       "invalid state is never retried",
			policy:     RetryPolicy{Enabled: true, MaxAttempts: 5, Delay: time.Millisecond},
			failures:   5,
			failWith:   fmt.Errorf("already done: %w", ErrInvalidState),
			wantCalled: 1,
			wantErrIs:  ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := 0
			err := runAction(t.Context(), logger.Test(t), "test", tt.policy, func(context.Context) error {
				called++
				if called <= tt.failures {
					return tt.failWith
				}

				return nil
			})

			switch {
			case tt.wantErrIs != nil:
				require.ErrorIs(t, err, tt.wantErrIs)
			case tt.wantErrString != "":
				require.ErrorContains(t, err, tt.wantErrString)
			default:
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func Test_runAction_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	called := 0
	err := runAction(ctx, logger.Nop(), "test", RetryPolicy{Enabled: true, Delay: time.Millisecond},
		func(context.Context) error {
			called++
			return errors.New("test error")
		})

	require.Error(t, err)
	assert.LessOrEqual(t, called, 1)
}
