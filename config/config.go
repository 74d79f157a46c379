// Package config holds the tunable thresholds of the keyframe extractor.
//
// Thresholds are configuration, not invariants: ordering, reset idempotence
// and the duplicate window hold for any valid Config. Values can be loaded
// from YAML or INI files; keys that are absent keep their defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/keyframe/diff"
	"github.com/opd-ai/keyframe/limits"
	"github.com/opd-ai/keyframe/textdetect"
)

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Supported encoder formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// DiffConfig tunes the similarity filter.
type DiffConfig struct {
	GridSize int     `yaml:"grid_size" ini:"grid_size"`
	SameMax  float64 `yaml:"same_max" ini:"same_max"`
	CutMin   float64 `yaml:"cut_min" ini:"cut_min"`
}

// TextConfig tunes the text detector.
type TextConfig struct {
	Cols          int     `yaml:"cols" ini:"cols"`
	Rows          int     `yaml:"rows" ini:"rows"`
	EdgeThreshold int     `yaml:"edge_threshold" ini:"edge_threshold"`
	CellDensity   float64 `yaml:"cell_density" ini:"cell_density"`
	MinConfidence float64 `yaml:"min_confidence" ini:"min_confidence"`
}

// StateConfig tunes the settle/cooldown state machine.
type StateConfig struct {
	StableFrames   int `yaml:"stable_frames" ini:"stable_frames"`
	CooldownFrames int `yaml:"cooldown_frames" ini:"cooldown_frames"`
}

// DedupConfig tunes the duplicate history.
type DedupConfig struct {
	Capacity int `yaml:"capacity" ini:"capacity"`
}

// EncodeConfig selects the keyframe image encoder.
type EncodeConfig struct {
	Format  string `yaml:"format" ini:"format"`
	Quality int    `yaml:"quality" ini:"quality"`
}

// IntakeConfig controls frame admission.
type IntakeConfig struct {
	// MaxSide is the longest side kept for detection; larger frames are
	// downscaled. Zero disables scaling.
	MaxSide int `yaml:"max_side" ini:"max_side"`

	// CropTop and CropBottom are row fractions cut away before detection
	// and encoding, for recordings framed by app chrome (status bars,
	// player controls). Both default to 0.
	CropTop    float64 `yaml:"crop_top" ini:"crop_top"`
	CropBottom float64 `yaml:"crop_bottom" ini:"crop_bottom"`
}

// Config is the complete extractor configuration.
type Config struct {
	Diff   DiffConfig   `yaml:"diff" ini:"diff"`
	Text   TextConfig   `yaml:"text" ini:"text"`
	State  StateConfig  `yaml:"state" ini:"state"`
	Dedup  DedupConfig  `yaml:"dedup" ini:"dedup"`
	Encode EncodeConfig `yaml:"encode" ini:"encode"`
	Intake IntakeConfig `yaml:"intake" ini:"intake"`
}

// Default returns the balanced preset.
func Default() Config {
	text := textdetect.DefaultOptions()
	return Config{
		Diff: DiffConfig{
			GridSize: diff.DefaultGridSize,
			SameMax:  0.03,
			CutMin:   0.15,
		},
		Text: TextConfig{
			Cols:          text.Cols,
			Rows:          text.Rows,
			EdgeThreshold: text.EdgeThreshold,
			CellDensity:   text.CellDensity,
			MinConfidence: 0.10,
		},
		State: StateConfig{
			StableFrames:   2,
			CooldownFrames: 3,
		},
		Dedup: DedupConfig{
			Capacity: 5,
		},
		Encode: EncodeConfig{
			Format:  FormatJPEG,
			Quality: 70,
		},
		Intake: IntakeConfig{
			MaxSide: limits.MaxFrameSide,
		},
	}
}

// HighMotion is tuned for fast-cut content: it settles sooner, tolerates
// more residual motion and remembers more keyframes.
func HighMotion() Config {
	cfg := Default()
	cfg.Diff.SameMax = 0.04
	cfg.Diff.CutMin = 0.12
	cfg.State.StableFrames = 2
	cfg.State.CooldownFrames = 2
	cfg.Dedup.Capacity = 8
	return cfg
}

// LowMotion is tuned for slow, static content such as slides.
func LowMotion() Config {
	cfg := Default()
	cfg.Diff.SameMax = 0.02
	cfg.Diff.CutMin = 0.18
	cfg.State.StableFrames = 3
	cfg.State.CooldownFrames = 5
	cfg.Dedup.Capacity = 3
	return cfg
}

// Preset returns a named preset: "default", "high-motion" or "low-motion".
func Preset(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return Default(), nil
	case "high-motion", "high":
		return HighMotion(), nil
	case "low-motion", "low":
		return LowMotion(), nil
	default:
		return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}
}

// Validate checks every value range. All failures wrap ErrInvalidConfig.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Diff.GridSize >= 1, "diff.grid_size must be >= 1, got %d", c.Diff.GridSize)
	check(c.Diff.SameMax >= 0, "diff.same_max must be >= 0, got %.3f", c.Diff.SameMax)
	check(c.Diff.CutMin <= 1, "diff.cut_min must be <= 1, got %.3f", c.Diff.CutMin)
	check(c.Diff.SameMax < c.Diff.CutMin, "diff.same_max (%.3f) must be below diff.cut_min (%.3f)", c.Diff.SameMax, c.Diff.CutMin)

	check(c.Text.Cols >= 1 && c.Text.Rows >= 1, "text grid must be >= 1x1, got %dx%d", c.Text.Cols, c.Text.Rows)
	check(c.Text.EdgeThreshold >= 1 && c.Text.EdgeThreshold <= 510, "text.edge_threshold must be in 1..510, got %d", c.Text.EdgeThreshold)
	check(c.Text.CellDensity > 0 && c.Text.CellDensity <= 1, "text.cell_density must be in (0,1], got %.3f", c.Text.CellDensity)
	check(c.Text.MinConfidence >= 0 && c.Text.MinConfidence <= 1, "text.min_confidence must be in [0,1], got %.3f", c.Text.MinConfidence)

	check(c.State.StableFrames >= 1, "state.stable_frames must be >= 1, got %d", c.State.StableFrames)
	check(c.State.CooldownFrames >= 0, "state.cooldown_frames must be >= 0, got %d", c.State.CooldownFrames)

	check(c.Dedup.Capacity >= 1, "dedup.capacity must be >= 1, got %d", c.Dedup.Capacity)

	switch c.Encode.Format {
	case FormatJPEG:
		check(c.Encode.Quality >= 1 && c.Encode.Quality <= 100, "encode.quality must be in 1..100, got %d", c.Encode.Quality)
	case FormatPNG:
	default:
		check(false, "encode.format must be %q or %q, got %q", FormatJPEG, FormatPNG, c.Encode.Format)
	}

	check(c.Intake.MaxSide >= 0, "intake.max_side must be >= 0, got %d", c.Intake.MaxSide)
	check(c.Intake.CropTop >= 0 && c.Intake.CropBottom >= 0 && c.Intake.CropTop+c.Intake.CropBottom < 1,
		"intake crop fractions must be >= 0 and sum below 1, got %.3f/%.3f", c.Intake.CropTop, c.Intake.CropBottom)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
