// Package config loads project-level settings for verdict runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/verdict/internal/pipeline"
)

// ProjectConfig holds settings loaded from verdict.yml. Zero values defer
// to the pipeline defaults, so a missing or sparse file is fine.
type ProjectConfig struct {
	Workers          int     `yaml:"workers,omitempty"`
	Validators       int     `yaml:"validators,omitempty"`
	AcceptThreshold  float64 `yaml:"acceptThreshold,omitempty"`
	RejectThreshold  float64 `yaml:"rejectThreshold,omitempty"`
	MaxRetries       *int    `yaml:"maxRetries,omitempty"`
	PerCallTimeoutMs int     `yaml:"perCallTimeoutMs,omitempty"`
	OutlierZScore    float64 `yaml:"outlierZScore,omitempty"`

	Dataset  string `yaml:"dataset,omitempty"`
	Archive  string `yaml:"archive,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`
	JSONLogs bool   `yaml:"jsonLogs,omitempty"`
}

// Load attempts to read verdict.yml or verdict.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"verdict.yml", "verdict.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// Pipeline converts the project config into a run configuration, leaving
// unset fields for the pipeline defaults to fill.
func (c *ProjectConfig) Pipeline() pipeline.Config {
	cfg := pipeline.Config{
		WorkerCount:     c.Workers,
		ValidatorCount:  c.Validators,
		AcceptThreshold: c.AcceptThreshold,
		RejectThreshold: c.RejectThreshold,
		OutlierZScore:   c.OutlierZScore,
	}
	if c.MaxRetries != nil {
		cfg.MaxRetries = *c.MaxRetries
	} else {
		cfg.MaxRetries = -1 // take the default
	}
	if c.PerCallTimeoutMs > 0 {
		cfg.PerCallTimeout = time.Duration(c.PerCallTimeoutMs) * time.Millisecond
	}
	return cfg
}
