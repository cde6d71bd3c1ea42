// Command opfixture applies fixture plans built from reversible operations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/test-operations/pkg/commands"
	"github.com/smartcontractkit/test-operations/pkg/config"
	"github.com/smartcontractkit/test-operations/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	lggr, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = lggr.Sync() }()

	app, err := newApp(lggr)
	if err != nil {
		return err
	}

	return app.ExecuteContext(ctx)
}

func newApp(lggr logger.Logger) (*cobra.Command, error) {
	app := &cobra.Command{
		Use:           "opfixture",
		Short:         "Apply and tear down test fixtures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	fixtureCmd, err := commands.New(lggr).Fixture(commands.FixtureConfig{})
	if err != nil {
		return nil, err
	}
	app.AddCommand(fixtureCmd)

	return app, nil
}
