package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/smartcontractkit/test-operations/operations"
)

// Folder is an operation that creates an empty directory. Reverting it removes
// the directory, which fails if something was left inside. Cleanup removes the
// directory with its contents.
type Folder struct {
	*operations.SyncOperation
	impl *createFolder
}

var _ Location = (*Folder)(nil)

// NewFolder returns a Folder that creates name inside parent. The directory
// must not exist yet.
func NewFolder(parent Location, name string, opts ...operations.Option) (*Folder, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	impl := &createFolder{parent: parent, name: name}

	return &Folder{
		SyncOperation: operations.NewSync(impl, opts...),
		impl:          impl,
	}, nil
}

// Path returns the directory created by the last execution.
func (f *Folder) Path() (string, error) {
	return f.impl.Path()
}

type createFolder struct {
	parent   Location
	name     string
	mu       sync.Mutex
	path     string
	executed atomic.Bool
}

func (c *createFolder) String() string {
	return fmt.Sprintf("CreateFolder(%s)", c.name)
}

func (c *createFolder) IsExecuted() bool {
	return c.executed.Load()
}

func (c *createFolder) Path() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.executed.Load() {
		return "", notExecuted(c.String())
	}

	return c.path, nil
}

func (c *createFolder) ExecuteImpl(context.Context) error {
	base, err := c.parent.Path()
	if err != nil {
		return err
	}
	path := filepath.Join(base, c.name)
	if err := os.Mkdir(path, 0o755); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = path
	if !c.executed.CompareAndSwap(false, true) {
		return fmt.Errorf("%s: %w", c, operations.ErrInvalidState)
	}

	return nil
}

func (c *createFolder) RevertImpl(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil {
		return err
	}
	if !c.executed.CompareAndSwap(true, false) {
		return fmt.Errorf("%s: %w", c, operations.ErrInvalidState)
	}
	c.path = ""

	return nil
}

// CleanupImpl removes the directory and anything left in it.
func (c *createFolder) CleanupImpl(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.executed.Load() {
		return nil
	}
	if err := os.RemoveAll(c.path); err != nil {
		return err
	}
	c.executed.Store(false)
	c.path = ""

	return nil
}
