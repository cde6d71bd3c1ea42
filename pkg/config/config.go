package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"slices"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/test-operations/operations"
	"github.com/smartcontractkit/test-operations/pkg/logger"
)

// PoolConfig is the configuration for the process-wide operations pool.
type PoolConfig struct {
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"` // Tasks run at once. Zero or less means unbounded.
}

// LogConfig is the configuration for the process-wide logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // A zap level name, e.g. "debug". Empty disables logging.
}

// UserConfig identifies the developer running the tests, so that fixtures can
// be attributed to them.
type UserConfig struct {
	Name      string `mapstructure:"name" yaml:"name"`             // Defaults to the OS user name.
	ShortName string `mapstructure:"short_name" yaml:"short_name"` // Defaults to the first two characters of Name.
}

// Config wraps the entire configuration for the operations library.
type Config struct {
	Pool PoolConfig `mapstructure:"pool" yaml:"pool"`
	Log  LogConfig  `mapstructure:"log" yaml:"log"`
	User UserConfig `mapstructure:"user" yaml:"user"`
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	// A missing config file is not an error; the environment provides the values.
	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := viper.New()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadFile loads the config from a file.
func LoadFile(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// UserName returns the configured user name, or the OS user name if none is set.
func (c *Config) UserName() (string, error) {
	if c.User.Name != "" {
		return c.User.Name, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("user name not found, set TEST_USERNAME: %w", err)
	}

	return u.Username, nil
}

// ShortUserName returns the configured short user name, or the first two
// characters of UserName if none is set.
func (c *Config) ShortUserName() (string, error) {
	if c.User.ShortName != "" {
		return c.User.ShortName, nil
	}
	name, err := c.UserName()
	if err != nil {
		return "", err
	}
	r := []rune(name)

	return string(r[:min(2, len(r))]), nil
}

// NewLogger returns a logger at the configured level, or a no-op logger if no
// level is configured.
func (c *Config) NewLogger() (logger.Logger, error) {
	if c.Log.Level == "" {
		return logger.Nop(), nil
	}
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	lcfg := logger.Config{Level: lvl}

	return lcfg.New()
}

// Apply sets the process-wide logger and pool used by operations created
// without WithLogger or WithPool, and returns the logger.
//
// Apply must be called once while bootstrapping, before any operation is
// created.
func Apply(cfg *Config) (logger.Logger, error) {
	lggr, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	operations.SetDefaultLogger(lggr)
	operations.SetDefaultPool(operations.NewPool(cfg.Pool.MaxWorkers))

	return lggr, nil
}

var (
	// envBindings maps each config key to the environment variables that can provide its value.
	//
	// The first element in the list is the preferred environment variable name, and the second
	// (if present) is a legacy name. Viper checks each listed variable in order and uses the first
	// one that is set.
	envBindings = map[string][]string{
		"pool.max_workers": {"OPERATIONS_POOL_MAX_WORKERS", "OPERATIONS_THREADS"},
		"log.level":        {"OPERATIONS_LOG_LEVEL"},
		"user.name":        {"OPERATIONS_USER_NAME", "TEST_USERNAME"},
		"user.short_name":  {"OPERATIONS_USER_SHORT_NAME", "TEST_SHORT_USERNAME"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		// Prepend the config key to the env var names
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
