// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable thresholds of the engine. The zero value is not
// useful; start from DefaultConfig.
//
// Config is read from YAML:
//
//	fill:
//	  tolerance: 32
//	  max_pixels: 16777216
//	  max_duration: 250ms
//	stroke:
//	  simplify_tolerance: 2.0
//	symmetry: radial4
//	replay:
//	  policy: lenient
//
// Environment variables (COLORBOOK_*) override file values.
type Config struct {
	Fill     FillConfig     `yaml:"fill"`
	Stroke   StrokeConfig   `yaml:"stroke"`
	Batch    BatchConfig    `yaml:"batch"`
	Coverage CoverageConfig `yaml:"coverage"`
	Symmetry SymmetryMode   `yaml:"symmetry"`
	Replay   ReplayConfig   `yaml:"replay"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FillConfig configures flood fill.
type FillConfig struct {
	Tolerance         uint8         `yaml:"tolerance"`
	MaxPixels         int           `yaml:"max_pixels"`
	MaxDuration       time.Duration `yaml:"max_duration"`
	BoundaryLuminance uint8         `yaml:"boundary_luminance"`
	NoOpTolerance     uint8         `yaml:"noop_tolerance"`
}

// StrokeConfig configures stroke capture.
type StrokeConfig struct {
	SimplifyTolerance float64   `yaml:"simplify_tolerance"`
	DefaultBrush      BrushType `yaml:"default_brush"`
	DefaultWidth      float64   `yaml:"default_width"`
}

// BatchConfig configures stroke batching.
type BatchConfig struct {
	Threshold int `yaml:"threshold"`
}

// CoverageConfig configures progress estimation.
type CoverageConfig struct {
	NoiseFloor uint8         `yaml:"noise_floor"`
	CompleteAt float64       `yaml:"complete_at"`
	Interval   time.Duration `yaml:"interval"`
}

// ReplayConfig configures action replay.
type ReplayConfig struct {
	Policy ReplayPolicy `yaml:"policy"`
}

// LoggingConfig configures log output of the command-line tool. The library
// itself logs through SetLogger only.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Fill: FillConfig{
			Tolerance:         DefaultFillTolerance,
			MaxPixels:         DefaultMaxFillPixels,
			MaxDuration:       DefaultMaxFillDuration,
			BoundaryLuminance: BoundaryLuminance,
			NoOpTolerance:     NoOpMatchTolerance,
		},
		Stroke: StrokeConfig{
			SimplifyTolerance: DefaultTolerance,
			DefaultBrush:      BrushCrayon,
			DefaultWidth:      8,
		},
		Batch: BatchConfig{Threshold: BatchThreshold},
		Coverage: CoverageConfig{
			NoiseFloor: CoverageNoiseFloor,
			CompleteAt: RawCoverageComplete,
			Interval:   2 * time.Second,
		},
		Symmetry: SymmetryNone,
		Replay:   ReplayConfig{Policy: ReplayStrict},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Environment variables that override configuration values.
const (
	EnvFillTolerance     = "COLORBOOK_FILL_TOLERANCE"
	EnvFillMaxPixels     = "COLORBOOK_FILL_MAX_PIXELS"
	EnvFillMaxDuration   = "COLORBOOK_FILL_MAX_DURATION"
	EnvSimplifyTolerance = "COLORBOOK_SIMPLIFY_TOLERANCE"
	EnvSymmetry          = "COLORBOOK_SYMMETRY"
	EnvReplayPolicy      = "COLORBOOK_REPLAY_POLICY"
	EnvLogLevel          = "COLORBOOK_LOG_LEVEL"
	EnvLogFormat         = "COLORBOOK_LOG_FORMAT"
	EnvLogSource         = "COLORBOOK_LOG_SOURCE"
	EnvLogFile           = "COLORBOOK_LOG_FILE"
)

// ParseConfig decodes YAML on top of DefaultConfig, applies environment
// overrides and validates the result. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("colorbook: parse config: %w", err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file. An empty path yields the defaults
// with environment overrides applied.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return ParseConfig(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("colorbook: load config: %w", err)
	}
	return ParseConfig(data)
}

// Marshal encodes the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every out-of-range value.
func (c Config) Validate() error {
	var errs []error
	if c.Fill.MaxPixels < 0 {
		errs = append(errs, fmt.Errorf("fill.max_pixels must not be negative, got %d", c.Fill.MaxPixels))
	}
	if c.Fill.MaxDuration < 0 {
		errs = append(errs, fmt.Errorf("fill.max_duration must not be negative, got %v", c.Fill.MaxDuration))
	}
	if t := c.Stroke.SimplifyTolerance; t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		errs = append(errs, fmt.Errorf("stroke.simplify_tolerance must be a finite non-negative number, got %v", t))
	}
	if !c.Stroke.DefaultBrush.Known() {
		errs = append(errs, fmt.Errorf("stroke.default_brush %q is not a known brush", c.Stroke.DefaultBrush))
	}
	if w := c.Stroke.DefaultWidth; w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		errs = append(errs, fmt.Errorf("stroke.default_width must be positive, got %v", w))
	}
	if c.Batch.Threshold < 1 {
		errs = append(errs, fmt.Errorf("batch.threshold must be at least 1, got %d", c.Batch.Threshold))
	}
	if r := c.Coverage.CompleteAt; r <= 0 || r > 1 {
		errs = append(errs, fmt.Errorf("coverage.complete_at must be in (0, 1], got %v", r))
	}
	if c.Coverage.Interval <= 0 {
		errs = append(errs, fmt.Errorf("coverage.interval must be positive, got %v", c.Coverage.Interval))
	}
	if c.Symmetry.Copies() == 1 && c.Symmetry != SymmetryNone {
		errs = append(errs, fmt.Errorf("symmetry %v is not a valid mode", c.Symmetry))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("colorbook: invalid config: %w", err)
	}
	return nil
}

// FillOptions returns the fill options described by the config.
func (c Config) FillOptions() []FillOption {
	return []FillOption{
		WithMaxPixels(c.Fill.MaxPixels),
		WithMaxDuration(c.Fill.MaxDuration),
		WithBoundaryLuminance(c.Fill.BoundaryLuminance),
		WithNoOpTolerance(c.Fill.NoOpTolerance),
	}
}

// CoverageOptions returns the coverage options described by the config.
func (c Config) CoverageOptions() []CoverageOption {
	return []CoverageOption{
		WithNoiseFloor(c.Coverage.NoiseFloor),
		WithCompleteAt(c.Coverage.CompleteAt),
	}
}

// applyEnvOverrides applies COLORBOOK_* variables. Malformed values are
// reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	env := func(key string) (string, bool) {
		v := strings.TrimSpace(os.Getenv(key))
		return v, v != ""
	}

	if v, ok := env(EnvFillTolerance); ok {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFillTolerance, err))
		} else {
			cfg.Fill.Tolerance = uint8(n)
		}
	}
	if v, ok := env(EnvFillMaxPixels); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFillMaxPixels, err))
		} else {
			cfg.Fill.MaxPixels = n
		}
	}
	if v, ok := env(EnvFillMaxDuration); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFillMaxDuration, err))
		} else {
			cfg.Fill.MaxDuration = d
		}
	}
	if v, ok := env(EnvSimplifyTolerance); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvSimplifyTolerance, err))
		} else {
			cfg.Stroke.SimplifyTolerance = f
		}
	}
	if v, ok := env(EnvSymmetry); ok {
		m, err := ParseSymmetryMode(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvSymmetry, err))
		} else {
			cfg.Symmetry = m
		}
	}
	if v, ok := env(EnvReplayPolicy); ok {
		p, err := ParseReplayPolicy(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvReplayPolicy, err))
		} else {
			cfg.Replay.Policy = p
		}
	}
	if v, ok := env(EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := env(EnvLogFormat); ok {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := env(EnvLogSource); ok {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v, ok := env(EnvLogFile); ok {
		cfg.Logging.File = v
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("colorbook: environment overrides: %w", err)
	}
	return nil
}
