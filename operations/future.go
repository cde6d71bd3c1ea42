package operations

import (
	"sync"
)

// Future is the pending result of an asynchronous lifecycle action.
// A Future completes exactly once, with either nil or the original error
// returned by the action. Errors are never wrapped by the Future itself, so
// errors.Is and errors.As work on the value returned by Wait.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewFuture returns an incomplete Future and the function that completes it.
// Only the first call to the complete function has an effect.
func NewFuture() (*Future, func(error)) {
	f := &Future{done: make(chan struct{})}

	return f, f.complete
}

// Resolved returns a Future that is already complete with err.
func Resolved(err error) *Future {
	f, complete := NewFuture()
	complete(err)

	return f
}

// Go runs fn on pool and returns a Future that completes with its result.
func Go(pool Pool, fn func() error) *Future {
	f, complete := NewFuture()
	pool.Submit(func() {
		complete(fn())
	})

	return f
}

func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the Future completes and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// Done returns a channel that is closed when the Future completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err returns the error of a completed Future. It returns nil while the Future
// is still pending.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Then returns a Future that completes with the result of next once f has
// completed successfully. If f fails, next is not called and the returned
// Future carries f's error.
func Then(f *Future, next func() *Future) *Future {
	out, complete := NewFuture()
	go func() {
		if err := f.Wait(); err != nil {
			complete(err)
			return
		}
		nf := next()
		if nf == nil {
			complete(nil)
			return
		}
		complete(nf.Wait())
	}()

	return out
}

// AllOf returns a Future that completes after every input Future has
// completed, regardless of their outcome. Its error is the first failure in
// argument order. Nil inputs are treated as successful.
func AllOf(futures ...*Future) *Future {
	if len(futures) == 0 {
		return Resolved(nil)
	}
	out, complete := NewFuture()
	go func() {
		complete(firstError(waitAll(futures)))
	}()

	return out
}

// waitAll waits for every future and returns their errors by index.
func waitAll(futures []*Future) []error {
	errs := make([]error, len(futures))
	for i, f := range futures {
		if f != nil {
			errs[i] = f.Wait()
		}
	}

	return errs
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

// whenDone returns a Future that completes with f's result after fn has
// observed it.
func whenDone(f *Future, fn func(error)) *Future {
	out, complete := NewFuture()
	go func() {
		err := f.Wait()
		fn(err)
		complete(err)
	}()

	return out
}
