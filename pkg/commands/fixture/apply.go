package fixture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/test-operations/operations"
	"github.com/smartcontractkit/test-operations/pkg/commands/text"
	"github.com/smartcontractkit/test-operations/pkg/logger"
)

var (
	applyLong = text.LongDesc(`
		Executes a fixture plan, keeps it in place for the hold duration or
		until interrupted, then cleans it up.

		Cleanup always runs, also when the plan fails part way. The command
		fails if any step is still in place after cleanup.
	`)

	applyExample = text.Examples(`
		# Apply a plan and tear it down right away
		opfixture fixture apply -f plan.yaml

		# Keep the fixture for a minute, with 4 workers
		OPERATIONS_POOL_MAX_WORKERS=4 opfixture fixture apply -f plan.yaml --hold 1m
	`)
)

// ErrLeaked is returned when fixture steps are still in place after cleanup.
var ErrLeaked = errors.New("fixture steps leaked")

// newApplyCmd creates the "apply" subcommand.
func newApplyCmd(cfg Config) *cobra.Command {
	var (
		hold       time.Duration
		root       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:     "apply",
		Short:   "Apply a fixture plan and clean it up.",
		Long:    applyLong,
		Example: applyExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, cfg, hold, root, configPath)
		},
	}

	cmd.Flags().DurationVar(&hold, "hold", 0, "How long to keep the fixture before cleaning up")
	cmd.Flags().StringVar(&root, "root", "", "Root folder. Overrides the plan root")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the config file. Default is env vars only")

	return cmd
}

// runApply executes the apply command logic.
// This is separated from the RunE closure to improve testability.
func runApply(cmd *cobra.Command, cfg Config, hold time.Duration, root, configPath string) error {
	deps := cfg.deps()

	libCfg, err := deps.ConfigLoader(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path, _ := cmd.Flags().GetString("file")
	plan, err := deps.PlanLoader(path)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	if root != "" {
		plan.Root = root
	}
	if plan.Root == "" {
		short, uerr := libCfg.ShortUserName()
		if uerr != nil {
			return fmt.Errorf("plan has no root and no user to derive one from: %w", uerr)
		}
		plan.Root = filepath.Join(os.TempDir(), "opfixture-"+short)
	}

	pool := operations.NewPool(libCfg.Pool.MaxWorkers)
	defer pool.Wait()
	reporter := operations.NewMemoryReporter()

	seq, err := plan.Build(cfg.Registry,
		operations.WithLogger(logger.Named(cfg.Logger, "fixture")),
		operations.WithPool(pool),
		operations.WithReporter(reporter),
	)
	if err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	ctx := cmd.Context()
	cmd.Printf("Applying plan %s in %s\n", path, plan.Root)

	execErr := seq.Execute(ctx)
	if execErr == nil {
		cmd.Printf("Fixture applied. Holding for %v\n", hold)
		deps.Hold(ctx, hold)
	}

	// Cleanup outlives an interrupt of the command.
	seq.Cleanup(context.WithoutCancel(ctx))
	cmd.Println("Fixture cleaned up")

	if execErr != nil {
		execErr = fmt.Errorf("failed to apply plan: %w", execErr)
	}

	return errors.Join(execErr, checkLeaks(cmd, cfg, reporter))
}

// checkLeaks reports the operations that are still executed after cleanup.
func checkLeaks(cmd *cobra.Command, cfg Config, reporter operations.Reporter) error {
	reports, err := reporter.GetReports()
	if err != nil {
		return err
	}

	names := make(map[string]string, len(reports))
	for _, r := range reports {
		names[r.OperationID] = r.Operation
	}

	leaked := operations.Outstanding(reports)
	for _, id := range leaked {
		cfg.Logger.Warnw("Fixture step leaked", "id", id, "operation", names[id])
		cmd.PrintErrf("Leaked: %s (%s)\n", names[id], id)
	}
	if len(leaked) > 0 {
		return fmt.Errorf("%d %w", len(leaked), ErrLeaked)
	}

	return nil
}
