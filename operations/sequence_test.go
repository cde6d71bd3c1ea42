package operations_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/test-operations/operations"
	"github.com/smartcontractkit/test-operations/operations/optest"
)

func Test_Sequence_Order(t *testing.T) {
	t.Parallel()

	var j journal
	opts, reporter := optest.Options(t)
	seq := operations.NewSequence(opts...)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, seq.Add(step(t, &j, name, nil)))
	}
	require.NoError(t, seq.Add(nil))

	assert.Equal(t, 3, seq.Len())
	assert.False(t, seq.IsEmpty())
	assert.Equal(t, "Sequence(3 items)", seq.String())

	require.NoError(t, seq.Execute(t.Context()))
	assert.True(t, seq.IsExecuted())
	require.ErrorIs(t, seq.Execute(t.Context()), operations.ErrInvalidState)

	require.NoError(t, seq.RevertAsync(t.Context()).Wait())
	assert.False(t, seq.IsExecuted())

	assert.Equal(t, []string{"+a", "+b", "+c", "-c", "-b", "-a"}, j.get())

	reports, err := reporter.GetReports()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, seq.ID(), reports[0].OperationID)
}

func Test_Sequence_Finished(t *testing.T) {
	t.Parallel()

	var j journal
	opts, _ := optest.Options(t)
	seq := operations.NewSequence(opts...)
	require.NoError(t, seq.Add(step(t, &j, "a", nil)))
	require.NoError(t, seq.Execute(t.Context()))

	require.ErrorIs(t, seq.Add(step(t, &j, "b", nil)), operations.ErrFinished)
	assert.Equal(t, 1, seq.Len())
	seq.Cleanup(t.Context())
}

func Test_Sequence_ExecuteFailure(t *testing.T) {
	t.Parallel()

	errTest := errors.New("test error")

	var j journal
	opts, _ := optest.Options(t)
	seq := operations.NewSequence(opts...)
	a := step(t, &j, "a", nil)
	b := step(t, &j, "b", errTest)
	c := step(t, &j, "c", nil)
	for _, op := range []operations.Operation{a, b, c} {
		require.NoError(t, seq.Add(op))
	}

	err := seq.Execute(t.Context())
	require.ErrorIs(t, err, errTest)
	assert.False(t, seq.IsExecuted())
	assert.True(t, a.IsExecuted())
	assert.False(t, c.IsExecuted())

	require.ErrorIs(t, seq.Revert(t.Context()), operations.ErrInvalidState)

	seq.Cleanup(t.Context())
	assert.False(t, a.IsExecuted())
	assert.Equal(t, []string{"+a", "-a"}, j.get())
	assert.Equal(t, 0, seq.Len())
}

func Test_Sequence_RevertSkipsRevertedChildren(t *testing.T) {
	t.Parallel()

	var j journal
	opts, _ := optest.Options(t)
	seq := operations.NewSequence(opts...)
	a := step(t, &j, "a", nil)
	b := step(t, &j, "b", nil)
	require.NoError(t, seq.Add(a))
	require.NoError(t, seq.Add(b))

	require.NoError(t, seq.Execute(t.Context()))
	require.NoError(t, b.Revert(t.Context()))
	require.NoError(t, seq.Revert(t.Context()))

	assert.Equal(t, []string{"+a", "+b", "-b", "-a"}, j.get())
}

func Test_Sequence_RevertFailure(t *testing.T) {
	t.Parallel()

	errRevert := errors.New("revert failed")

	var counter atomic.Int64
	opts, _ := optest.Options(t)
	seq := operations.NewSequence(opts...)
	first := optest.NewIncrement(&counter)
	failing := optest.NewIncrement(&counter)
	failing.RevertErr = errRevert
	last := optest.NewIncrement(&counter)
	for _, impl := range []*optest.Increment{first, failing, last} {
		require.NoError(t, seq.Add(operations.NewSync(impl, opts...)))
	}

	require.NoError(t, seq.Execute(t.Context()))
	assert.Equal(t, int64(3), counter.Load())

	require.ErrorIs(t, seq.Revert(t.Context()), errRevert)
	assert.True(t, seq.IsExecuted())
	assert.True(t, first.IsExecuted())
	assert.False(t, last.IsExecuted())

	seq.Cleanup(t.Context())
	assert.False(t, first.IsExecuted())
	assert.True(t, failing.IsExecuted())
	assert.Equal(t, int64(1), counter.Load())
	assert.False(t, seq.IsExecuted())
}

func Test_Sequence_AddExecute(t *testing.T) {
	t.Parallel()

	var j journal
	opts, _ := optest.Options(t)
	seq := operations.NewSequence(opts...)

	require.NoError(t, seq.AddExecute(t.Context(), step(t, &j, "a", nil)))
	require.NoError(t, seq.AddExecute(t.Context(), step(t, &j, "b", nil)))
	assert.False(t, seq.IsExecuted())

	seq.Finish()
	assert.True(t, seq.IsExecuted())

	require.NoError(t, seq.Revert(t.Context()))
	assert.Equal(t, []string{"+a", "+b", "-b", "-a"}, j.get())
}

func Test_Sequence_Empty(t *testing.T) {
	t.Parallel()

	var count atomic.Int64
	opts, _ := optest.Options(t)
	seq := operations.NewSequence(opts...)
	seq.AddValidator(optest.NewCountingValidator(&count))

	require.NoError(t, seq.ExecuteAsync(t.Context()).Wait())
	assert.True(t, seq.IsExecuted())
	require.NoError(t, seq.Revert(t.Context()))
	require.NoError(t, seq.CleanupAsync(t.Context()).Wait())

	assert.Equal(t, int64(optest.ExecutionWeight+optest.RevertWeight), count.Load())
}

func Test_Sequence_CleanupValidator(t *testing.T) {
	t.Parallel()

	var counter, count atomic.Int64
	opts, _ := optest.Options(t)
	seq := operations.NewSequence(opts...)
	require.NoError(t, seq.Add(operations.NewSync(optest.NewIncrement(&counter), opts...)))
	seq.AddValidator(optest.NewCountingValidator(&count))

	require.NoError(t, seq.Execute(t.Context()))
	require.NoError(t, seq.Close())

	assert.Equal(t, int64(0), counter.Load())
	assert.Equal(t, int64(optest.ExecutionWeight+optest.CleanupWeight), count.Load())
	require.ErrorIs(t, seq.Execute(t.Context()), operations.ErrClosed)
}
