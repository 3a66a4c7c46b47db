package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Solver  SolverConfig  `mapstructure:"solver"`
	Problem ProblemConfig `mapstructure:"problem"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SolverConfig holds the search budget and hyperparameters
type SolverConfig struct {
	Goroutines             int           `mapstructure:"goroutines"`
	Episodes               int           `mapstructure:"episodes"`
	Duration               time.Duration `mapstructure:"duration"`
	MaxDepth               int           `mapstructure:"max_depth"`
	DiscountFactor         float64       `mapstructure:"discount_factor"`
	ExplorationCoefficient float64       `mapstructure:"exploration_coefficient"`
	RolloutSteps           int           `mapstructure:"rollout_steps"`
	Seed                   uint64        `mapstructure:"seed"`
	Tracing                bool          `mapstructure:"tracing"`
}

func (c SolverConfig) Normalize() SolverConfig {
	if c.Goroutines <= 0 {
		c.Goroutines = 1
	}
	return c
}

func (c SolverConfig) Validate() error {
	if c.Episodes <= 0 && c.Duration <= 0 {
		return fmt.Errorf("%w: solver.episodes or solver.duration must be positive", ErrInvalidConfig)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: solver.max_depth must be positive", ErrInvalidConfig)
	}
	if c.DiscountFactor <= 0 || c.DiscountFactor > 1 {
		return fmt.Errorf("%w: solver.discount_factor must be in (0, 1]", ErrInvalidConfig)
	}
	if c.ExplorationCoefficient < 0 {
		return fmt.Errorf("%w: solver.exploration_coefficient cannot be negative", ErrInvalidConfig)
	}
	if c.RolloutSteps < 0 {
		return fmt.Errorf("%w: solver.rollout_steps cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// ProblemConfig parameterises the tiger problem
type ProblemConfig struct {
	ListenAccuracy      float64 `mapstructure:"listen_accuracy"`
	ListenReward        float64 `mapstructure:"listen_reward"`
	TreasureReward      float64 `mapstructure:"treasure_reward"`
	TigerReward         float64 `mapstructure:"tiger_reward"`
	Confidence          float64 `mapstructure:"confidence"`
	PreferredInit       bool    `mapstructure:"preferred_init"`
	PreferredVisitCount int64   `mapstructure:"preferred_visit_count"`
	PreferredQValue     float64 `mapstructure:"preferred_q_value"`
	ShuffleActions      bool    `mapstructure:"shuffle_actions"`
}

func (c ProblemConfig) Validate() error {
	if c.ListenAccuracy < 0.5 || c.ListenAccuracy > 1 {
		return fmt.Errorf("%w: problem.listen_accuracy must be in [0.5, 1]", ErrInvalidConfig)
	}
	if c.Confidence <= 0.5 || c.Confidence > 1 {
		return fmt.Errorf("%w: problem.confidence must be in (0.5, 1]", ErrInvalidConfig)
	}
	if c.PreferredVisitCount < 0 {
		return fmt.Errorf("%w: problem.preferred_visit_count cannot be negative", ErrInvalidConfig)
	}
	return nil
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

func (c LoggingConfig) Normalize() LoggingConfig {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	if c.Level == "" {
		c.Level = "info"
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = "console"
	}
	return c
}

func (c LoggingConfig) Validate() error {
	if c.Format != "console" && c.Format != "json" {
		return fmt.Errorf("%w: logging.format must be console or json, got %q", ErrInvalidConfig, c.Format)
	}
	return nil
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"` // Serves /metrics when set
	OutputDir string `mapstructure:"output_dir"`
}

func (c MetricsConfig) Normalize() MetricsConfig {
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	if c.OutputDir == "" {
		c.OutputDir = "experiments"
	}
	return c
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"goroutines":   "solver.goroutines",
	"episodes":     "solver.episodes",
	"duration":     "solver.duration",
	"max-depth":    "solver.max_depth",
	"seed":         "solver.seed",
	"tracing":      "solver.tracing",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"metrics":      "metrics.enabled",
	"metrics-addr": "metrics.address",
	"output-dir":   "metrics.output_dir",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("solver.goroutines", 1)
	v.SetDefault("solver.episodes", 1000)
	v.SetDefault("solver.duration", time.Duration(0))
	v.SetDefault("solver.max_depth", 50)
	v.SetDefault("solver.discount_factor", 0.95)
	v.SetDefault("solver.exploration_coefficient", 1.4142135623730951)
	v.SetDefault("solver.rollout_steps", 20)
	v.SetDefault("solver.seed", 1)
	v.SetDefault("solver.tracing", false)

	v.SetDefault("problem.listen_accuracy", 0.85)
	v.SetDefault("problem.listen_reward", -1.0)
	v.SetDefault("problem.treasure_reward", 10.0)
	v.SetDefault("problem.tiger_reward", -100.0)
	v.SetDefault("problem.confidence", 0.9)
	v.SetDefault("problem.preferred_init", false)
	v.SetDefault("problem.preferred_visit_count", 5)
	v.SetDefault("problem.preferred_q_value", 0.0)
	v.SetDefault("problem.shuffle_actions", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", "")
	v.SetDefault("metrics.output_dir", "experiments")
}

// Load reads defaults, then the config file at path (or ./abt.yaml when path
// is empty and the file exists), then ABT_* environment variables, then any
// changed flags. A duration with no explicit episode count from any of those
// sources replaces the default episode budget.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("abt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("ABT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (ABT_*)

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if config.Solver.Duration > 0 && !explicitlySet(v, flags, "solver.episodes") {
		config.Solver.Episodes = 0
	}
	config.Solver = config.Solver.Normalize()
	config.Logging = config.Logging.Normalize()
	config.Metrics = config.Metrics.Normalize()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// explicitlySet reports whether key was given by the config file, the
// environment or a changed flag. Viper's IsSet also counts defaults.
func explicitlySet(v *viper.Viper, flags *pflag.FlagSet, key string) bool {
	if v.InConfig(key) {
		return true
	}
	if _, ok := os.LookupEnv("ABT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); ok {
		return true
	}
	if flags == nil {
		return false
	}
	for name, bound := range flagKeys {
		if bound == key && flags.Changed(name) {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if err := c.Problem.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}
