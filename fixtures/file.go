package fixtures

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/smartcontractkit/test-operations/operations"
)

// File is an operation that creates a file with fixed content. The file must
// not exist yet. Reverting it deletes the file.
type File struct {
	*operations.SyncOperation
	impl *createFile
}

var _ Location = (*File)(nil)

// NewFile returns a File that creates name inside parent.
func NewFile(parent Location, name string, content []byte, opts ...operations.Option) (*File, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	impl := &createFile{parent: parent, name: name, content: content}

	return &File{
		SyncOperation: operations.NewSync(impl, opts...),
		impl:          impl,
	}, nil
}

// Path returns the file created by the last execution.
func (f *File) Path() (string, error) {
	return f.impl.Path()
}

type createFile struct {
	parent   Location
	name     string
	content  []byte
	mu       sync.Mutex
	path     string
	executed atomic.Bool
}

func (c *createFile) String() string {
	return fmt.Sprintf("CreateFile(%s)", c.name)
}

func (c *createFile) IsExecuted() bool {
	return c.executed.Load()
}

func (c *createFile) Path() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.executed.Load() {
		return "", notExecuted(c.String())
	}

	return c.path, nil
}

func (c *createFile) ExecuteImpl(context.Context) error {
	base, err := c.parent.Path()
	if err != nil {
		return err
	}
	path := filepath.Join(base, c.name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(c.content); err != nil {
		return errors.Join(err, f.Close(), os.Remove(path))
	}
	if err := f.Close(); err != nil {
		return errors.Join(err, os.Remove(path))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = path
	if !c.executed.CompareAndSwap(false, true) {
		return fmt.Errorf("%s: %w", c, operations.ErrInvalidState)
	}

	return nil
}

func (c *createFile) RevertImpl(context.Context) error {
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
