package operations

import (
	"context"
	"slices"
)

// Collection is an operation built from child operations that run together.
// Sequence and Group implement it.
type Collection interface {
	Operation

	// Add appends op to the collection. A nil op is ignored. Add fails with
	// ErrFinished once the collection has started executing or cleaning up.
	Add(op Operation) error
	// Len returns the number of child operations.
	Len() int
	// IsEmpty reports whether no child operations were added.
	IsEmpty() bool
	// Operations returns the child operations in insertion order.
	Operations() []Operation
	// Finish freezes the collection. Execute and Cleanup call it implicitly and
	// it may be called more than once.
	Finish()
}

// children is the child list shared by Sequence and Group. It is mutable only
// until finished is set; it is not safe for concurrent mutation.
type children struct {
	ops      []Operation
	finished bool
}

// Add implements Collection.
func (c *children) Add(op Operation) error {
	if op == nil {
		return nil
	}
	if c.finished {
		return ErrFinished
	}
	c.ops = append(c.ops, op)

	return nil
}

// Len implements Collection.
func (c *children) Len() int {
	return len(c.ops)
}

// IsEmpty implements Collection.
func (c *children) IsEmpty() bool {
	return len(c.ops) == 0
}

// Operations implements Collection.
func (c *children) Operations() []Operation {
	return slices.Clone(c.ops)
}

// asyncOf runs a blocking lifecycle call on its own goroutine. Composites use
// it instead of the pool so that waiting on children never holds a worker.
func asyncOf(ctx context.Context, fn func(context.Context) error) *Future {
	f, complete := NewFuture()
	go func() {
		complete(fn(ctx))
	}()

	return f
}
