package fixtures

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/smartcontractkit/test-operations/operations"
)

// ErrUnknownKind is returned when a plan step uses a kind that is not registered.
var ErrUnknownKind = errors.New("step kind not found in registry")

// BuildFunc builds the operation for one plan step. The step body is decoded
// with Step.Decode; nested steps are built with Builder.Build.
type BuildFunc func(b *Builder, step Step) (operations.Operation, error)

// Registry is a store for step builders that allows retrieval by step kind.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]BuildFunc
}

// NewRegistry creates a Registry with the built-in step kinds: folder, file,
// delay, sequence and group.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]BuildFunc)}
	r.Register(KindFolder, buildFolder)
	r.Register(KindFile, buildFile)
	r.Register(KindDelay, buildDelay)
	r.Register(KindSequence, buildSequence)
	r.Register(KindGroup, buildGroup)

	return r
}

// Register adds or replaces the builder for kind.
func (r *Registry) Register(kind string, fn BuildFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.builders[kind] = fn
}

// Retrieve returns the builder for kind.
func (r *Registry) Retrieve(kind string) (BuildFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.builders[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}

	return fn, nil
}

// Kinds returns the registered step kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.builders))
}
