package fixtures

import (
	"fmt"
	"path/filepath"

	"github.com/smartcontractkit/test-operations/operations"
)

// Location resolves the directory a fixture is created in. It is resolved
// when the fixture executes, so a fixture can be placed inside a folder that
// is created earlier in the same sequence.
type Location interface {
	Path() (string, error)
}

// Dir is a fixed directory that must already exist.
type Dir string

// Path implements Location.
func (d Dir) Path() (string, error) {
	return string(d), nil
}

// Join returns a Location for elem inside loc.
func Join(loc Location, elem ...string) Location {
	return joined{loc: loc, elem: elem}
}

type joined struct {
	loc  Location
	elem []string
}

func (j joined) Path() (string, error) {
	base, err := j.loc.Path()
	if err != nil {
		return "", err
	}

	return filepath.Join(append([]string{base}, j.elem...)...), nil
}

// checkName rejects names that are absolute or escape their location.
func checkName(name string) error {
	if name == "" || !filepath.IsLocal(name) {
		return fmt.Errorf("fixture name %q must be a relative path inside its location", name)
	}

	return nil
}

func notExecuted(name string) error {
	return fmt.Errorf("%s has no path until executed: %w", name, operations.ErrInvalidState)
}
