package operations_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/test-operations/operations"
)

// journal records the order in which steps ran.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entry)
}

func (j *journal) get() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return slices.Clone(j.entries)
}

// step returns a Generic operation that journals "+name" on execute and
// "-name" on revert. A non-nil err fails the execute action.
func step(t *testing.T, j *journal, name string, err error, opts ...operations.Option) *operations.Generic[string] {
	t.Helper()

	op := operations.NewGeneric(name, append([]operations.Option{operations.WithName(name)}, opts...)...)
	require.NoError(t, op.AddExecuteFunc(func(_ context.Context, name string) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		j.add("+" + name)

		return nil
	}))
	op.AddRevertFunc(func(_ context.Context, name string) error {
		j.add("-" + name)
		return nil
	})

	return op
}
