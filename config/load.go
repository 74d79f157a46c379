package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file on top of base. The format is chosen by
// extension: .yaml/.yml or .ini. The merged result is validated.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data, base)
	case ".ini":
		cfg, err = ParseINI(data, base)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return Config{}, err
	}

	logrus.WithFields(logrus.Fields{
		"function":  "config.Load",
		"path":      path,
		"same_max":  cfg.Diff.SameMax,
		"cut_min":   cfg.Diff.CutMin,
		"stable":    cfg.State.StableFrames,
		"cooldown":  cfg.State.CooldownFrames,
		"dedup_cap": cfg.Dedup.Capacity,
	}).Info("Loaded extractor configuration")

	return cfg, nil
}

// ParseYAML decodes YAML over base and validates the result.
func ParseYAML(data []byte, base Config) (Config, error) {
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseINI decodes INI over base and validates the result. Each config group
// is its own section ([diff], [text], [state], [dedup], [encode], [intake]).
func ParseINI(data []byte, base Config) (Config, error) {
	file, err := ini.Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse INI config: %w", err)
	}

	cfg := base
	sections := []struct {
		name   string
		target any
	}{
		{"diff", &cfg.Diff},
		{"text", &cfg.Text},
		{"state", &cfg.State},
		{"dedup", &cfg.Dedup},
		{"encode", &cfg.Encode},
		{"intake", &cfg.Intake},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).MapTo(s.target); err != nil {
			return Config{}, fmt.Errorf("failed to map INI section [%s]: %w", s.name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
