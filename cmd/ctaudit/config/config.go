// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads ctaudit settings.
//
// Priority, highest first: command-line flags (applied by the caller after
// Load), CTAUDIT_* environment variables, the YAML file, then defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ctguard/services/leakage"
	"github.com/AleutianAI/ctguard/services/leakage/baseline"
)

// ErrInvalidConfig wraps every validation and parse failure.
var ErrInvalidConfig = errors.New("invalid ctaudit configuration")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CTAUDIT_"

// Config is the full ctaudit configuration.
type Config struct {
	Run      RunConfig      `yaml:"run"`
	Logging  LoggingConfig  `yaml:"logging"`
	Output   OutputConfig   `yaml:"output"`
	Baseline BaselineConfig `yaml:"baseline"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Memory   MemoryConfig   `yaml:"memory"`
}

// RunConfig mirrors leakage.Config plus the random-class seed.
type RunConfig struct {
	TrialCount            int     `yaml:"trial_count" validate:"min=1"`
	IterationsPerTrial    int     `yaml:"iterations_per_trial" validate:"min=1"`
	SignificanceThreshold float64 `yaml:"significance_threshold" validate:"gt=0"`
	WarmupTrials          int     `yaml:"warmup_trials" validate:"min=0"`
	HistogramBuckets      int     `yaml:"histogram_buckets" validate:"min=0"`

	// Seed drives random input classes. Zero picks a fresh seed per run.
	Seed uint64 `yaml:"seed"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

type OutputConfig struct {
	// Personality is full, minimal or machine. Empty detects from the terminal.
	Personality string `yaml:"personality" validate:"omitempty,oneof=full minimal machine"`
	JSON        bool   `yaml:"json"`
}

type BaselineConfig struct {
	Path         string  `yaml:"path" validate:"required"`
	GrowthFactor float64 `yaml:"growth_factor" validate:"gt=1"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace" validate:"required"`
	Subsystem string `yaml:"subsystem" validate:"required"`
}

type MemoryConfig struct {
	// Insecure keeps secrets on the wiped heap instead of mlocked memory.
	// Useful where the memlock limit is too small or mlock is forbidden.
	Insecure bool `yaml:"insecure"`
}

// Default returns the built-in configuration.
func Default() Config {
	lc := leakage.DefaultConfig()
	return Config{
		Run: RunConfig{
			TrialCount:            lc.TrialCount,
			IterationsPerTrial:    lc.IterationsPerTrial,
			SignificanceThreshold: lc.SignificanceThreshold,
			WarmupTrials:          lc.WarmupTrials,
			HistogramBuckets:      lc.HistogramBuckets,
		},
		Logging:  LoggingConfig{Level: "info"},
		Baseline: BaselineConfig{Path: "~/.ctguard/baselines", GrowthFactor: baseline.DefaultGrowthFactor},
		Metrics:  MetricsConfig{Namespace: "ctguard", Subsystem: "leakage"},
	}
}

// DefaultPath is ~/.ctguard/ctaudit.yaml, or "" without a home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ctguard", "ctaudit.yaml")
}

// Load builds a Config from defaults, the file at path and the environment.
//
// Inputs:
//   - path: YAML file. Empty falls back to DefaultPath, which may be absent.
//     An explicit path that does not exist is an error.
//
// Outputs:
//   - Config: The merged configuration. Not yet validated, since flags
//     still apply on top.
//   - error: Wraps ErrInvalidConfig on parse failures.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(path, &cfg, explicit); err != nil {
			return cfg, err
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w: %w", path, ErrInvalidConfig, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	var errs []error

	envInt := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, err))
				return
			}
			*dst = i
		}
	}
	envFloat := func(key string, dst *float64) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, err))
				return
			}
			*dst = f
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, err))
				return
			}
			*dst = b
		}
	}
	envString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	envInt("TRIALS", &cfg.Run.TrialCount)
	envInt("ITERATIONS", &cfg.Run.IterationsPerTrial)
	envFloat("THRESHOLD", &cfg.Run.SignificanceThreshold)
	envInt("WARMUP", &cfg.Run.WarmupTrials)
	envInt("BUCKETS", &cfg.Run.HistogramBuckets)
	if v := os.Getenv(EnvPrefix + "SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED=%q: %w", EnvPrefix, v, err))
		} else {
			cfg.Run.Seed = seed
		}
	}

	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_DIR", &cfg.Logging.Dir)
	envBool("LOG_JSON", &cfg.Logging.JSON)

	envString("PERSONALITY", &cfg.Output.Personality)
	envBool("JSON", &cfg.Output.JSON)

	envString("BASELINE_PATH", &cfg.Baseline.Path)
	envFloat("BASELINE_GROWTH", &cfg.Baseline.GrowthFactor)

	envString("METRICS_NAMESPACE", &cfg.Metrics.Namespace)

	envBool("INSECURE_MEMORY", &cfg.Memory.Insecure)

	if len(errs) > 0 {
		return fmt.Errorf("environment: %w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

var validate = validator.New()

// Validate checks struct tags, then the derived leakage.Config.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Leakage().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Leakage returns the runner configuration.
func (c Config) Leakage() leakage.Config {
	return leakage.Config{
		TrialCount:            c.Run.TrialCount,
		IterationsPerTrial:    c.Run.IterationsPerTrial,
		SignificanceThreshold: c.Run.SignificanceThreshold,
		WarmupTrials:          c.Run.WarmupTrials,
		HistogramBuckets:      c.Run.HistogramBuckets,
	}
}
