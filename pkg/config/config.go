// Package config loads gitpulse settings from TOML, YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for gitpulse.
type Config struct {
	// History window and branch hints
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Per-analyzer tuning
	Size       SizeConfig       `koanf:"size" toml:"size"`
	Churn      ChurnConfig      `koanf:"churn" toml:"churn"`
	Cochange   CochangeConfig   `koanf:"cochange" toml:"cochange"`
	Deployment DeploymentConfig `koanf:"deployment" toml:"deployment"`
	LeadTime   LeadTimeConfig   `koanf:"leadtime" toml:"leadtime"`

	// Paths dropped from file-level analyses
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	Output OutputConfig `koanf:"output" toml:"output"`
	Log    LogConfig    `koanf:"log" toml:"log"`
}

// AnalysisConfig controls the history window.
type AnalysisConfig struct {
	Days          int      `koanf:"days" toml:"days"`
	Branches      []string `koanf:"branches" toml:"branches"`
	CurrentBranch string   `koanf:"current_branch" toml:"current_branch"`
}

// SizeConfig holds the thresholds used when a window has no commits.
type SizeConfig struct {
	Small  float64 `koanf:"small" toml:"small"`
	Medium float64 `koanf:"medium" toml:"medium"`
	Large  float64 `koanf:"large" toml:"large"`
	Huge   float64 `koanf:"huge" toml:"huge"`
	TopN   int     `koanf:"top_n" toml:"top_n"`
}

// ChurnConfig holds absolute churn boundaries in lines.
type ChurnConfig struct {
	High   int `koanf:"high" toml:"high"`
	Medium int `koanf:"medium" toml:"medium"`
}

// CochangeConfig tunes coupling detection.
type CochangeConfig struct {
	MinCochanges            int     `koanf:"min_cochanges" toml:"min_cochanges"`
	MaxFilesPerCommit       int     `koanf:"max_files_per_commit" toml:"max_files_per_commit"`
	HotspotMinRelationships int     `koanf:"hotspot_min_relationships" toml:"hotspot_min_relationships"`
	HotspotStrength         float64 `koanf:"hotspot_strength" toml:"hotspot_strength"`
}

// DeploymentConfig lists the branches treated as production lines.
type DeploymentConfig struct {
	MainBranches []string `koanf:"main_branches" toml:"main_branches"`
}

// LeadTimeConfig tunes the bottleneck profiles.
type LeadTimeConfig struct {
	LongMessageLength int `koanf:"long_message_length" toml:"long_message_length"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, yaml, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
	Top    int    `koanf:"top" toml:"top"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `koanf:"level" toml:"level"`   // debug, info, warn, error
	Format string `koanf:"format" toml:"format"` // text, json
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Days: 90,
		},
		Size: SizeConfig{
			Small:  50,
			Medium: 200,
			Large:  500,
			Huge:   1000,
			TopN:   10,
		},
		Churn: ChurnConfig{
			High:   1000,
			Medium: 100,
		},
		Cochange: CochangeConfig{
			MinCochanges:            2,
			MaxFilesPerCommit:       0,
			HotspotMinRelationships: 3,
			HotspotStrength:         0.3,
		},
		Deployment: DeploymentConfig{
			MainBranches: []string{"main", "master", "production", "prod"},
		},
		LeadTime: LeadTimeConfig{
			LongMessageLength: 100,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
			},
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
			Top:    20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// configNames are the file names searched by LoadConfig, in order.
var configNames = []string{
	"gitpulse.toml",
	"gitpulse.yaml",
	"gitpulse.yml",
	"gitpulse.json",
	".gitpulse.toml",
	".gitpulse.yaml",
	".gitpulse.yml",
	".gitpulse.json",
}

// searchDirs are the directories searched by LoadConfig, in order.
var searchDirs = []string{".", ".gitpulse"}

// parserFor picks a koanf parser from the file extension, defaulting to TOML.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// Load loads configuration from a file over the defaults and validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadResult is a loaded configuration and the file it came from.
// Source is empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches relative to dir instead of the working directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads an explicit file, or the first config file found in the
// standard locations, or the defaults when none exists. A broken file is an
// error.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{dir: "."}
	for _, opt := range opts {
		opt(o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	if path := find(o.dir); path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: path}, nil
	}
	return &LoadResult{Config: DefaultConfig()}, nil
}

// find returns the first existing config file under dir, or "".
func find(dir string) string {
	for _, sub := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Validation errors.
var (
	ErrInvalidDays       = errors.New("analysis.days must be positive")
	ErrInvalidThresholds = errors.New("thresholds must be non-negative and non-decreasing")
	ErrInvalidStrength   = errors.New("cochange.hotspot_strength must be within [0, 1]")
	ErrInvalidValue      = errors.New("invalid value")
)

var (
	validFormats   = []string{"text", "json", "yaml", "markdown", "md", "toon"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate reports every invalid setting, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Analysis.Days <= 0 {
		errs = append(errs, fmt.Errorf("%w (got %d)", ErrInvalidDays, c.Analysis.Days))
	}

	s := c.Size
	if s.Small < 0 || s.Small > s.Medium || s.Medium > s.Large || s.Large > s.Huge {
		errs = append(errs, fmt.Errorf("size: %w", ErrInvalidThresholds))
	}
	if s.TopN < 0 {
		errs = append(errs, fmt.Errorf("size.top_n: %w (got %d)", ErrInvalidValue, s.TopN))
	}
	if c.Churn.Medium < 0 || c.Churn.Medium > c.Churn.High {
		errs = append(errs, fmt.Errorf("churn: %w", ErrInvalidThresholds))
	}

	cc := c.Cochange
	if cc.MinCochanges < 1 {
		errs = append(errs, fmt.Errorf("cochange.min_cochanges: %w (got %d)", ErrInvalidValue, cc.MinCochanges))
	}
	if cc.MaxFilesPerCommit < 0 {
		errs = append(errs, fmt.Errorf("cochange.max_files_per_commit: %w (got %d)", ErrInvalidValue, cc.MaxFilesPerCommit))
	}
	if cc.HotspotMinRelationships < 1 {
		errs = append(errs, fmt.Errorf("cochange.hotspot_min_relationships: %w (got %d)", ErrInvalidValue, cc.HotspotMinRelationships))
	}
	if cc.HotspotStrength < 0 || cc.HotspotStrength > 1 {
		errs = append(errs, fmt.Errorf("%w (got %v)", ErrInvalidStrength, cc.HotspotStrength))
	}

	if c.LeadTime.LongMessageLength <= 0 {
		errs = append(errs, fmt.Errorf("leadtime.long_message_length: %w (got %d)", ErrInvalidValue, c.LeadTime.LongMessageLength))
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Output.Format)) {
		errs = append(errs, fmt.Errorf("output.format: %w %q", ErrInvalidValue, c.Output.Format))
	}
	if c.Output.Top < 0 {
		errs = append(errs, fmt.Errorf("output.top: %w (got %d)", ErrInvalidValue, c.Output.Top))
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level: %w %q", ErrInvalidValue, c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format: %w %q", ErrInvalidValue, c.Log.Format))
	}

	return errors.Join(errs...)
}

// ShouldExclude checks if a path should be excluded from file-level analysis.
// Paths are repository-relative and slash-separated, as git prints them.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
