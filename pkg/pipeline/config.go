package pipeline

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netpsych/netpsych/pkg/bootstrap"
	"github.com/netpsych/netpsych/pkg/pcor"
	"github.com/netpsych/netpsych/pkg/validation"
)

// Config drives a full pipeline run. It is usually loaded from a YAML file;
// zero values fall back to the defaults documented per field.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Model     ModelConfig     `yaml:"model"`
	Network   NetworkConfig   `yaml:"network"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Output    OutputConfig    `yaml:"output"`

	// Timeout bounds the whole run. Defaults to 10 minutes.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is debug, info, warn or error. Defaults to info.
	LogLevel string `yaml:"logLevel"`
}

// DataConfig locates the respondent data. Path accepts a local file path or
// an s3://bucket/key URL.
type DataConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// ModelConfig describes the confirmatory factor model. When Factors is empty
// and the dataset's items match the built-in five-factor inventory, that
// model is used; otherwise the factor step is skipped.
type ModelConfig struct {
	Factors map[string][]string `yaml:"factors"`
	// Skip disables the factor model even when one could be derived.
	Skip bool `yaml:"skip"`
	// MaxIterations caps the optimizer (default 200).
	MaxIterations int `yaml:"maxIterations"`
}

// NetworkConfig selects the estimator and the edge-selection rules.
type NetworkConfig struct {
	Estimator string  `yaml:"estimator" validate:"estimator"`
	Prune     bool    `yaml:"prune"`
	Alpha     float64 `yaml:"alpha"`
	// Threshold hides weak edges from plots only; the estimated model keeps
	// them.
	Threshold float64 `yaml:"threshold"`
}

// BootstrapConfig controls edge-weight stability estimation.
type BootstrapConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Resamples int     `yaml:"resamples"`
	Workers   int     `yaml:"workers"`
	Level     float64 `yaml:"level"`
	Seed      uint64  `yaml:"seed"`
	// Cache, when set, stores the raw draws so intervals can be recomputed
	// at another level without re-estimating.
	Cache string `yaml:"cache"`
}

// OutputConfig says where the report goes.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the configuration the tutorial dataset runs with.
func DefaultConfig() Config {
	return Config{
		Network: NetworkConfig{
			Estimator: string(pcor.EstimatorPcor),
			Prune:     true,
			Alpha:     pcor.DefaultAlpha,
		},
		Bootstrap: BootstrapConfig{
			Enabled:   true,
			Resamples: bootstrap.DefaultResamples,
			Level:     0.95,
			Seed:      1,
		},
		Output:   OutputConfig{Dir: "netpsych-out"},
		Timeout:  10 * time.Minute,
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML config file, fills in defaults and validates it.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	c.Network.Estimator = validation.DefaultOr(c.Network.Estimator, defaults.Network.Estimator)
	if c.Network.Prune && c.Network.Alpha == 0 {
		c.Network.Alpha = defaults.Network.Alpha
	}
	if c.Bootstrap.Enabled {
		c.Bootstrap.Resamples = validation.DefaultOrInt(c.Bootstrap.Resamples, defaults.Bootstrap.Resamples)
		if c.Bootstrap.Level == 0 {
			c.Bootstrap.Level = defaults.Bootstrap.Level
		}
	}
	c.Output.Dir = validation.DefaultOr(c.Output.Dir, defaults.Output.Dir)
	c.Timeout = validation.DefaultOrDuration(c.Timeout, defaults.Timeout)
	c.LogLevel = validation.DefaultOr(c.LogLevel, defaults.LogLevel)
	c.Model.MaxIterations = validation.DefaultOrInt(c.Model.MaxIterations, 200)
}

// Validate combines struct-tag validation with the cross-field rules the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	cv := validation.NewConfigValidator("PipelineConfig").
		Required("Data.Path", c.Data.Path).
		Required("Output.Dir", c.Output.Dir).
		OneOf("LogLevel", c.LogLevel, []string{"debug", "info", "warn", "error"}).
		MinDuration("Timeout", c.Timeout, time.Second).
		NonNegativeFloat("Network.Threshold", c.Network.Threshold).
		When(c.Network.Prune, func(v *validation.ConfigValidator) {
			v.OpenUnitInterval("Network.Alpha", c.Network.Alpha)
		}).
		When(c.Bootstrap.Enabled, func(v *validation.ConfigValidator) {
			v.RangeInt("Bootstrap.Resamples", c.Bootstrap.Resamples, 1, 100000)
			v.NonNegative("Bootstrap.Workers", c.Bootstrap.Workers)
			v.OpenUnitInterval("Bootstrap.Level", c.Bootstrap.Level)
		}).
		Custom("Model.Factors", c.validateFactors)

	return cv.Validate()
}

func (c *Config) validateFactors() error {
	if len(c.Model.Factors) == 0 {
		return nil
	}
	factors := make([]string, 0, len(c.Model.Factors))
	for f := range c.Model.Factors {
		factors = append(factors, f)
	}
	sort.Strings(factors)

	var items []string
	for _, f := range factors {
		if len(c.Model.Factors[f]) == 0 {
			return fmt.Errorf("factor %q has no indicators", f)
		}
		items = append(items, c.Model.Factors[f]...)
	}
	return validation.ValidateItemLabels(items)
}
