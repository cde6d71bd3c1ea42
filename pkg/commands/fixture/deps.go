package fixture

import (
	"context"
	"time"

	"github.com/smartcontractkit/test-operations/fixtures"
	"github.com/smartcontractkit/test-operations/pkg/config"
)

// PlanLoaderFunc loads a fixture plan from a file.
type PlanLoaderFunc func(path string) (*fixtures.Plan, error)

// ConfigLoaderFunc loads the library configuration. An empty path means
// environment variables only.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// HoldFunc keeps an applied fixture in place for d, or until ctx is done.
type HoldFunc func(ctx context.Context, d time.Duration)

func defaultConfigLoader(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadEnv()
	}

	return config.Load(path)
}

func defaultHold(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Deps holds the injectable dependencies for fixture commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// PlanLoader loads the fixture plan.
	// Default: fixtures.LoadPlan
	PlanLoader PlanLoaderFunc

	// ConfigLoader loads the library configuration.
	// Default: config.Load, or config.LoadEnv when no path is given
	ConfigLoader ConfigLoaderFunc

	// Hold waits while the fixture is applied.
	// Default: a timer that stops early when the command context is canceled
	Hold HoldFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.PlanLoader == nil {
		d.PlanLoader = fixtures.LoadPlan
	}
	if d.ConfigLoader == nil {
		d.ConfigLoader = defaultConfigLoader
	}
	if d.Hold == nil {
		d.Hold = defaultHold
	}
}
