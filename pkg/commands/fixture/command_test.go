package fixture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/test-operations/fixtures"
	"github.com/smartcontractkit/test-operations/operations"
	"github.com/smartcontractkit/test-operations/operations/optest"
	"github.com/smartcontractkit/test-operations/pkg/config"
	"github.com/smartcontractkit/test-operations/pkg/logger"
)

const testPlan = `
steps:
  - folder: a
  - group:
      steps:
        - file: {path: a/x.txt, content: hello}
        - file: {path: a/y.txt}
`

func parsePlan(t *testing.T, s string) PlanLoaderFunc {
	t.Helper()

	return func(string) (*fixtures.Plan, error) {
		return fixtures.ParsePlan([]byte(s))
	}
}

func envConfig() ConfigLoaderFunc {
	return func(string) (*config.Config, error) {
		return &config.Config{
			Pool: config.PoolConfig{MaxWorkers: 2},
			User: config.UserConfig{Name: "tester"},
		}, nil
	}
}

// TestNewCommand_Structure verifies the command structure is correct.
func TestNewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Nop()})
	require.NoError(t, err)

	assert.Equal(t, "fixture", cmd.Use)
	assert.Equal(t, "Fixture plan commands", cmd.Short)

	fileFlag := cmd.PersistentFlags().Lookup("file")
	require.NotNil(t, fileFlag)
	assert.Equal(t, "f", fileFlag.Shorthand)

	subs := cmd.Commands()
	require.Len(t, subs, 2)
	assert.Equal(t, "apply", subs[0].Use)
	assert.Equal(t, "validate", subs[1].Use)

	hold := subs[0].Flags().Lookup("hold")
	require.NotNil(t, hold)
	assert.Equal(t, "0s", hold.Value.String())
}

func TestNewCommand_MissingLogger(t *testing.T) {
	t.Parallel()

	_, err := NewCommand(Config{})
	require.ErrorContains(t, err, "missing required fields: Logger")
}

func TestApply_MissingFileFlagFails(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Nop()})
	require.NoError(t, err)

	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"apply"})

	err = cmd.Execute()
	require.ErrorContains(t, err, `required flag(s) "file" not set`)
}

func TestApply_Success(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)

	var held time.Duration
	cmd, err := NewCommand(Config{
		Logger: lggr,
		Deps: Deps{
			PlanLoader:   parsePlan(t, testPlan),
			ConfigLoader: envConfig(),
			Hold: func(_ context.Context, d time.Duration) {
				held = d
				// The fixture is in place while held.
				assert.FileExists(t, filepath.Join(root, "a", "x.txt"))
			},
		},
	})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"apply", "-f", "plan.yaml", "--root", root, "--hold", "5s"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 5*time.Second, held)
	assert.NoDirExists(t, filepath.Join(root, "a"))

	output := out.String()
	assert.Contains(t, output, "Fixture applied")
	assert.Contains(t, output, "Fixture cleaned up")
	assert.NotEmpty(t, logs.FilterMessage("Executing operation").All())
}

func TestApply_DefaultRootFromUser(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{
		Logger: logger.Nop(),
		Deps: Deps{
			PlanLoader: func(string) (*fixtures.Plan, error) {
				return &fixtures.Plan{}, nil
			},
			ConfigLoader: func(string) (*config.Config, error) {
				return &config.Config{User: config.UserConfig{Name: "tester", ShortName: "tt"}}, nil
			},
			Hold: func(context.Context, time.Duration) {},
		},
	})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"apply", "-f", "plan.yaml"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), filepath.Join(os.TempDir(), "opfixture-tt"))
}

func TestApply_FailureStillCleansUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "y.txt"), []byte("keep"), 0o600))

	held := false
	cmd, err := NewCommand(Config{
		Logger: logger.Test(t),
		Deps: Deps{
			PlanLoader: parsePlan(t, `
steps:
  - folder: a/b
  - file: {path: a/x.txt}
  - file: {path: a/y.txt}
`),
			ConfigLoader: envConfig(),
			Hold:         func(context.Context, time.Duration) { held = true },
		},
	})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"apply", "-f", "plan.yaml", "--root", root})

	err = cmd.Execute()
	require.ErrorContains(t, err, "failed to apply plan")
	require.ErrorIs(t, err, os.ErrExist)
	assert.False(t, held)

	assert.NoDirExists(t, filepath.Join(root, "a", "b"))
	assert.NoFileExists(t, filepath.Join(root, "a", "x.txt"))
	assert.FileExists(t, filepath.Join(root, "a", "y.txt"))
}

func TestApply_Leak(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	reg := fixtures.NewRegistry()
	var counter atomic.Int64
	reg.Register("stuck", func(b *fixtures.Builder, _ fixtures.Step) (operations.Operation, error) {
		impl := optest.NewIncrement(&counter)
		impl.RevertErr = errors.New("cannot revert")

		return operations.NewSync(impl, append(b.Options, operations.WithName("stuck"))...), nil
	})

	cmd, err := NewCommand(Config{
		Logger:   logger.Test(t),
		Registry: reg,
		Deps: Deps{
			PlanLoader:   parsePlan(t, "steps:\n  - stuck: {}\n"),
			ConfigLoader: envConfig(),
			Hold:         func(context.Context, time.Duration) {},
		},
	})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"apply", "-f", "plan.yaml", "--root", root})

	err = cmd.Execute()
	require.ErrorIs(t, err, ErrLeaked)
	assert.Contains(t, out.String(), "Leaked: stuck")
}

func TestApply_LoadErrors(t *testing.T) {
	t.Parallel()

	errLoad := errors.New("boom")

	tests := []struct {
		name    string
		deps    Deps
		wantErr string
	}{
		{
			name: "config",
			deps: Deps{
				ConfigLoader: func(string) (*config.Config, error) { return nil, errLoad },
			},
			wantErr: "failed to load config",
		},
		{
			name: "plan",
			deps: Deps{
				ConfigLoader: envConfig(),
				PlanLoader:   func(string) (*fixtures.Plan, error) { return nil, errLoad },
			},
			wantErr: "failed to load plan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, err := NewCommand(Config{Logger: logger.Nop(), Deps: tt.deps})
			require.NoError(t, err)

			cmd.SetOut(new(bytes.Buffer))
			cmd.SetErr(new(bytes.Buffer))
			cmd.SetArgs([]string{"apply", "-f", "plan.yaml"})

			err = cmd.Execute()
			require.ErrorIs(t, err, errLoad)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		plan    string
		wantErr string
		wantOut string
	}{
		{
			name:    "valid",
			plan:    testPlan,
			wantOut: "is valid: 2 top-level steps",
		},
		{
			name:    "unknown kind",
			plan:    "steps:\n  - volume: a\n",
			wantErr: "invalid plan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, err := NewCommand(Config{
				Logger: logger.Nop(),
				Deps:   Deps{PlanLoader: parsePlan(t, tt.plan)},
			})
			require.NoError(t, err)

			out := new(bytes.Buffer)
			cmd.SetOut(out)
			cmd.SetErr(out)
			cmd.SetArgs([]string{"validate", "-f", "plan.yaml"})

			err = cmd.Execute()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestValidate_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPlan), 0o600))

	cmd, err := NewCommand(Config{Logger: logger.Nop()})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"validate", "-f", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "is valid")
}
