package gc

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// ConfigFileName is the conventional name for a heap's tuning file,
// mirroring how this collector's host language keeps one canonical config
// file name per project. LoadConfig and Save take an explicit path and do
// not apply this name themselves.
const ConfigFileName = "solagc.toml"

// Config holds the tunables [New] applies when constructing a Heap.
// LoadConfig/Save handle the on-disk form; construct one by hand, or start from
// [defaultConfig] via options, for everything else.
type Config struct {
	// InitialThreshold is the byte count a heap must accumulate before
	// ShouldCollect reports true for the first time.
	InitialThreshold uint64 `toml:"initial_threshold_bytes"`
	// GrowthFactor is the multiplier applied to bytes live after a
	// sweep to compute the next cycle's trigger threshold.
	GrowthFactor float64 `toml:"growth_factor"`
	// PollInterval is how often the background collector wakes to check
	// ShouldCollect when automatic collection is enabled.
	PollInterval time.Duration `toml:"poll_interval"`
	// StepBudget is the gray-queue slice size the background collector
	// passes to CollectIncremental.
	StepBudget int `toml:"step_budget"`
	// Automatic enables the background collector goroutine.
	Automatic bool `toml:"automatic"`
	// Debug enables verbose structured logging of collector internals
	// (phase transitions, sweep counts) at debug level.
	Debug bool `toml:"debug"`

	Logger *zap.Logger `toml:"-"`
}

func defaultConfig() *Config {
	return &Config{
		InitialThreshold: 1 << 20, // 1 MiB
		GrowthFactor:     1.5,
		PollInterval:     50 * time.Millisecond,
		StepBudget:       256,
		Automatic:        false,
		Debug:            false,
		Logger:           zap.NewNop(),
	}
}

// Option configures a Context constructed with [New].
type Option func(*Config)

// WithInitialThreshold sets the byte count a fresh heap must accumulate
// before it first becomes eligible for collection.
func WithInitialThreshold(bytes uint64) Option {
	return func(c *Config) { c.InitialThreshold = bytes }
}

// WithGrowthFactor sets the multiplier applied to live bytes after a sweep
// to compute the next cycle's trigger threshold.
func WithGrowthFactor(factor float64) Option {
	return func(c *Config) { c.GrowthFactor = factor }
}

// WithAutomaticCollection starts a background goroutine that polls
// ShouldCollect every interval and, when it reports true, runs an
// incremental cycle in slices of step headers.
func WithAutomaticCollection(interval time.Duration, step int) Option {
	return func(c *Config) {
		c.Automatic = true
		c.PollInterval = interval
		c.StepBudget = step
	}
}

// WithDebug enables verbose collector logging through logger. A nil logger
// leaves the currently configured logger (zap's no-op logger by default) in
// place.
func WithDebug(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Debug = true
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithLogger sets the logger used for collector diagnostics without
// necessarily enabling debug-level verbosity.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// LoadConfig reads a Config from a TOML file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := defaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating or truncating the file.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// AsOptions converts a loaded Config into Options suitable for [New],
// so a file loaded via LoadConfig can be applied the same way
// programmatically-built options are.
func (c *Config) AsOptions() []Option {
	opts := []Option{
		WithInitialThreshold(c.InitialThreshold),
		WithGrowthFactor(c.GrowthFactor),
	}
	if c.Automatic {
		opts = append(opts, WithAutomaticCollection(c.PollInterval, c.StepBudget))
	}
	if c.Debug {
		opts = append(opts, WithDebug(c.Logger))
	} else if c.Logger != nil {
		opts = append(opts, WithLogger(c.Logger))
	}
	return opts
}
