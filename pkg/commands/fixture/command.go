// Package fixture provides CLI commands for applying fixture plans.
package fixture

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/test-operations/fixtures"
	"github.com/smartcontractkit/test-operations/pkg/commands/text"
	"github.com/smartcontractkit/test-operations/pkg/logger"
)

var (
	fixtureShort = "Fixture plan commands"

	fixtureLong = text.LongDesc(`
		Commands for working with fixture plans.

		A fixture plan is a YAML file describing folders, files and delays,
		nested in sequences and concurrent groups, to create under a root folder.
	`)
)

// Config holds the configuration for fixture commands.
type Config struct {
	// Logger is the logger to use for operation logs. Required.
	Logger logger.Logger

	// Registry resolves plan step kinds. Default: fixtures.NewRegistry()
	Registry *fixtures.Registry

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	var missing []string

	if c.Logger == nil {
		missing = append(missing, "Logger")
	}

	if len(missing) > 0 {
		return errors.New("fixture.Config: missing required fields: " + strings.Join(missing, ", "))
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates a new fixture command with all subcommands.
//
// Usage:
//
//	cmd, err := fixture.NewCommand(fixture.Config{Logger: lggr})
//	rootCmd.AddCommand(cmd)
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()
	if cfg.Registry == nil {
		cfg.Registry = fixtures.NewRegistry()
	}

	cmd := &cobra.Command{
		Use:   "fixture",
		Short: fixtureShort,
		Long:  fixtureLong,
	}

	cmd.AddCommand(newApplyCmd(cfg))
	cmd.AddCommand(newValidateCmd(cfg))

	// The file flag is persistent because every subcommand reads a plan.
	cmd.PersistentFlags().
		StringP("file", "f", "", "Path to the fixture plan (required)")
	_ = cmd.MarkPersistentFlagRequired("file")

	return cmd, nil
}
