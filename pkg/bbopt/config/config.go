// Package config reads search settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/operator-framework/bbopt/pkg/bbopt"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

var validate = validator.New()

// Duration decodes "1m30s" style strings from both YAML and TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	AbsoluteTolerance float64 `yaml:"absolute_tolerance" toml:"absolute_tolerance" validate:"gte=0"`
	RelativeTolerance float64 `yaml:"relative_tolerance" toml:"relative_tolerance" validate:"gte=0"`

	// Zero means no limit.
	IterationLimit int      `yaml:"iteration_limit" toml:"iteration_limit" validate:"gte=0"`
	NodeLimit      int      `yaml:"node_limit" toml:"node_limit" validate:"gte=0"`
	TimeLimit      Duration `yaml:"time_limit" toml:"time_limit"`

	BranchVariable       []bool  `yaml:"branch_variable" toml:"branch_variable"`
	MinimumBoxWidth      float64 `yaml:"minimum_box_width" toml:"minimum_box_width" validate:"gte=0"`
	NodeSelection        string  `yaml:"node_selection" toml:"node_selection" validate:"oneof=best-first depth-first"`
	BranchFraction       float64 `yaml:"branch_fraction" toml:"branch_fraction" validate:"gt=0,lt=1"`
	FeasibilityTolerance float64 `yaml:"feasibility_tolerance" toml:"feasibility_tolerance" validate:"gte=0"`

	Verbosity string `yaml:"verbosity" toml:"verbosity" validate:"oneof=quiet normal debug"`
	// OutputIterations is how often progress lines are logged.
	OutputIterations int `yaml:"output_iterations" toml:"output_iterations" validate:"gte=1"`
}

// Default mirrors bbopt.DefaultSettings.
func Default() Config {
	s := bbopt.DefaultSettings()
	return Config{
		AbsoluteTolerance:    s.AbsoluteTolerance,
		RelativeTolerance:    s.RelativeTolerance,
		MinimumBoxWidth:      s.MinimumBoxWidth,
		Verbosity:            "normal",
		OutputIterations:     s.OutputIterations,
		NodeSelection:        string(s.NodeSelection),
		BranchFraction:       s.BranchFraction,
		FeasibilityTolerance: s.FeasibilityTolerance,
	}
}

// Load decodes path over the defaults. The format follows the file
// extension: .yaml, .yml or .toml.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	case ".toml":
		err = toml.Unmarshal(data, &c)
	default:
		return c, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate reports field errors as bbopt.ErrInvalidOption.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", bbopt.ErrInvalidOption, err.Error())
	}
	if c.TimeLimit.Duration < 0 {
		return fmt.Errorf("time limit %s: %w", c.TimeLimit, bbopt.ErrInvalidOption)
	}
	return nil
}

func (c Config) Settings() bbopt.Settings {
	return bbopt.Settings{
		AbsoluteTolerance:    c.AbsoluteTolerance,
		RelativeTolerance:    c.RelativeTolerance,
		IterationLimit:       c.IterationLimit,
		NodeLimit:            c.NodeLimit,
		TimeLimit:            c.TimeLimit.Duration,
		BranchVariable:       c.BranchVariable,
		MinimumBoxWidth:      c.MinimumBoxWidth,
		BranchFraction:       c.BranchFraction,
		FeasibilityTolerance: c.FeasibilityTolerance,
		NodeSelection:        bbopt.NodeSelection(c.NodeSelection),
		OutputIterations:     c.OutputIterations,
	}
}

// Level maps the verbosity to a log level.
func (c Config) Level() slog.Level {
	switch c.Verbosity {
	case "quiet":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
