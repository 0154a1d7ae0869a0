package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names for state persistence.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// StorageConfig selects where and how state is persisted.
type StorageConfig struct {
	Backend   string        `mapstructure:"backend"`    // json or sqlite
	DataDir   string        `mapstructure:"data_dir"`   // base directory
	StateFile string        `mapstructure:"state_file"` // file name within data_dir
	SaveDelay time.Duration `mapstructure:"save_delay"` // debounce for writes, 0 = immediate
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
	File   string `mapstructure:"file"`   // log file path (empty = stderr)
	Color  bool   `mapstructure:"color"`
}

// RotationConfig tunes the password-rotation pass.
type RotationConfig struct {
	// StepDelay paces rotation steps for UI feedback. Zero disables
	// pacing; correctness does not depend on it.
	StepDelay time.Duration `mapstructure:"step_delay"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".statevault"

	return &Config{
		Storage: StorageConfig{
			Backend:   BackendJSON,
			DataDir:   dataDir,
			StateFile: "state.json",
			SaveDelay: 0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Color:  true,
		},
		Rotation: RotationConfig{
			StepDelay: 0,
		},
	}
}

// Load reads configuration from the given file (optional), the default
// search paths, and STATEVAULT_* environment variables, layered over the
// defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("storage.state_file", defaults.Storage.StateFile)
	v.SetDefault("storage.save_delay", defaults.Storage.SaveDelay)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.color", defaults.Log.Color)
	v.SetDefault("rotation.step_delay", defaults.Rotation.StepDelay)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("statevault")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.statevault")
	}

	v.SetEnvPrefix("STATEVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("invalid storage backend %q", c.Storage.Backend)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	if c.Storage.SaveDelay < 0 || c.Rotation.StepDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}

	return nil
}

// StatePath returns the full path of the persisted state.
func (c *Config) StatePath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.StateFile)
}
