package operations

import (
	"context"
	"slices"
	"sync"
)

// Validator checks the outcome of an operation's lifecycle actions.
//
// ValidateExecution runs once after every successful execute action and
// ValidateRevert once after every successful revert action. The operation waits
// for the returned Future before its Execute or Revert returns, and a failed
// Future becomes the result of that call.
//
// ValidateCleanup runs during Cleanup only when the execution was validated but
// the revert was not, e.g. because the revert action failed. It lets stateful
// validators release what they hold. Its failure is suppressed.
//
// A nil Future is treated as a successful validation.
type Validator interface {
	ValidateExecution(ctx context.Context, pool Pool, op Operation) *Future
	ValidateRevert(ctx context.Context, pool Pool, op Operation) *Future
	ValidateCleanup(ctx context.Context, pool Pool, op Operation) *Future
}

// Tagged is implemented by validators that can be removed with MatchTag.
type Tagged interface {
	Tag() string
}

// ValidatorFunc is a blocking validation hook.
type ValidatorFunc func(ctx context.Context, op Operation) error

// ValidatorFuncs adapts blocking functions to the Validator interface. Each
// non-nil function runs on the pool; nil functions succeed immediately.
type ValidatorFuncs struct {
	Name      string
	Execution ValidatorFunc
	Revert    ValidatorFunc
	Cleanup   ValidatorFunc
}

var (
	_ Validator = (*ValidatorFuncs)(nil)
	_ Tagged    = (*ValidatorFuncs)(nil)
)

// ValidateExecution implements Validator.
func (v *ValidatorFuncs) ValidateExecution(ctx context.Context, pool Pool, op Operation) *Future {
	return runValidatorFunc(ctx, pool, op, v.Execution)
}

// ValidateRevert implements Validator.
func (v *ValidatorFuncs) ValidateRevert(ctx context.Context, pool Pool, op Operation) *Future {
	return runValidatorFunc(ctx, pool, op, v.Revert)
}

// ValidateCleanup implements Validator.
func (v *ValidatorFuncs) ValidateCleanup(ctx context.Context, pool Pool, op Operation) *Future {
	return runValidatorFunc(ctx, pool, op, v.Cleanup)
}

// Tag returns the validator name.
func (v *ValidatorFuncs) Tag() string {
	return v.Name
}

func runValidatorFunc(ctx context.Context, pool Pool, op Operation, fn ValidatorFunc) *Future {
	if fn == nil {
		return nil
	}

	return Go(pool, func() error {
		return fn(ctx, op)
	})
}

// MatchTag matches validators implementing Tagged whose tag equals tag.
func MatchTag(tag string) func(Validator) bool {
	return func(v Validator) bool {
		t, ok := v.(Tagged)
		return ok && t.Tag() == tag
	}
}

// MatchType matches validators whose dynamic type is T.
func MatchType[T Validator]() func(Validator) bool {
	return func(v Validator) bool {
		_, ok := v.(T)
		return ok
	}
}

// validatorSet is the ordered set of validators attached to one operation. It
// tracks which phases were validated so the cleanup hook fires only when
// needed.
type validatorSet struct {
	mu                 sync.Mutex
	list               []Validator
	executionValidated bool
	revertValidated    bool
}

func (s *validatorSet) add(v Validator) {
	if v == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.list = append(s.list, v)
}

func (s *validatorSet) remove(match func(Validator) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.list)
	s.list = slices.DeleteFunc(s.list, match)

	return len(s.list) != n
}

func (s *validatorSet) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.list = nil
}

func (s *validatorSet) snapshot() []Validator {
	return slices.Clone(s.list)
}

func (s *validatorSet) validateExecution(ctx context.Context, pool Pool, op Operation) *Future {
	s.mu.Lock()
	list := s.snapshot()
	s.executionValidated = true
	s.revertValidated = false
	s.mu.Unlock()

	return fanOut(list, func(v Validator) *Future {
		return v.ValidateExecution(ctx, pool, op)
	})
}

func (s *validatorSet) validateRevert(ctx context.Context, pool Pool, op Operation) *Future {
	s.mu.Lock()
	list := s.snapshot()
	s.revertValidated = true
	s.mu.Unlock()

	return fanOut(list, func(v Validator) *Future {
		return v.ValidateRevert(ctx, pool, op)
	})
}

func (s *validatorSet) validateCleanup(ctx context.Context, pool Pool, op Operation) *Future {
	s.mu.Lock()
	if !s.executionValidated || s.revertValidated {
		s.mu.Unlock()
		return Resolved(nil)
	}
	list := s.snapshot()
	s.revertValidated = true
	s.mu.Unlock()

	return fanOut(list, func(v Validator) *Future {
		return v.ValidateCleanup(ctx, pool, op)
	})
}

// fanOut starts hook on every validator before waiting on any of them.
func fanOut(list []Validator, hook func(Validator) *Future) *Future {
	futures := make([]*Future, len(list))
	for i, v := range list {
		futures[i] = hook(v)
	}

	return AllOf(futures...)
}
