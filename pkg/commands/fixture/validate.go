package fixture

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/test-operations/pkg/commands/text"
)

var validateExample = text.Examples(`
	# Check that a plan parses and every step can be built
	opfixture fixture validate -f plan.yaml
`)

// newValidateCmd creates the "validate" subcommand, which builds a plan
// without executing it.
func newValidateCmd(cfg Config) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:     "validate",
		Short:   "Validate a fixture plan without applying it.",
		Example: validateExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, cfg, root)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Root folder. Overrides the plan root")

	return cmd
}

func runValidate(cmd *cobra.Command, cfg Config, root string) error {
	deps := cfg.deps()

	path, _ := cmd.Flags().GetString("file")
	plan, err := deps.PlanLoader(path)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	if root != "" {
		plan.Root = root
	}
	if plan.Root == "" {
		// Validation never touches the file system, so any root will do.
		plan.Root = "."
	}

	seq, err := plan.Build(cfg.Registry)
	if err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	cmd.Printf("Plan %s is valid: %d top-level steps\n", path, seq.Len())

	return nil
}
