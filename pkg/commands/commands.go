// Package commands provides modular CLI command packages for fixture tooling.
//
// There are two ways to use commands from this package:
//
// 1. Via the Commands factory (recommended for most use cases):
//
//	cmds := commands.New(lggr)
//	fixtureCmd, err := cmds.Fixture(commands.FixtureConfig{})
//	app.AddCommand(fixtureCmd)
//
// 2. Via direct package imports (for advanced DI/testing):
//
//	import "github.com/smartcontractkit/test-operations/pkg/commands/fixture"
//
//	cmd, err := fixture.NewCommand(fixture.Config{
//	    Logger: lggr,
//	    Deps:   fixture.Deps{...},  // inject fakes for testing
//	})
package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/test-operations/fixtures"
	"github.com/smartcontractkit/test-operations/pkg/commands/fixture"
	"github.com/smartcontractkit/test-operations/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
// This allows setting the logger once and reusing it across all commands.
type Commands struct {
	lggr logger.Logger
}

// New creates a new Commands factory with the given logger.
// The logger will be shared across all commands created by this factory.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// FixtureConfig holds configuration for fixture commands.
type FixtureConfig struct {
	// Registry resolves custom plan step kinds. The built-in kinds are used
	// when nil.
	Registry *fixtures.Registry
}

// Fixture creates the fixture command group for applying fixture plans.
//
// Usage:
//
//	cmds := commands.New(lggr)
//	fixtureCmd, err := cmds.Fixture(commands.FixtureConfig{})
func (c *Commands) Fixture(cfg FixtureConfig) (*cobra.Command, error) {
	return fixture.NewCommand(fixture.Config{
		Logger:   c.lggr,
		Registry: cfg.Registry,
	})
}
