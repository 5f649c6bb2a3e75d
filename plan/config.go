package plan

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Color advance policies: when the color cursor of a satellite moves after a
// beam is granted.
const (
	// ColorAdvancePerBeam moves the cursor past the granted color after every
	// assignment, spreading beams across all colors.
	ColorAdvancePerBeam = "per_beam"
	// ColorAdvanceOnConflict keeps the cursor on the granted color; it only
	// moves when a self-interference conflict forces another color.
	ColorAdvanceOnConflict = "on_conflict"
)

// ValidColorAdvancePolicies is the set of recognized color advance policies.
var ValidColorAdvancePolicies = map[string]bool{"": true, ColorAdvancePerBeam: true, ColorAdvanceOnConflict: true}

// Thresholds groups the angular limits and per-satellite capacities.
type Thresholds struct {
	MaxUserVisibleAngle             float64 `yaml:"max_user_visible_angle"`             // degrees from vertical
	SelfInterferenceMax             float64 `yaml:"self_interference_max"`              // degrees, seen from the satellite
	NonConstellationInterferenceMax float64 `yaml:"non_constellation_interference_max"` // degrees, seen from the user
	BeamsPerSatellite               int     `yaml:"beams_per_satellite"`
	ColorsPerSatellite              int     `yaml:"colors_per_satellite"`
}

// Config is the full thresholds YAML structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Thresholds   Thresholds `yaml:"thresholds"`
	ColorAdvance string     `yaml:"color_advance"`
	Workers      int        `yaml:"workers"` // 0 = GOMAXPROCS, 1 = serial
}

// DefaultConfig returns the reference planning parameters.
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			MaxUserVisibleAngle:             45.0,
			SelfInterferenceMax:             10.0,
			NonConstellationInterferenceMax: 20.0,
			BeamsPerSatellite:               32,
			ColorsPerSatellite:              4,
		},
		ColorAdvance: ColorAdvancePerBeam,
		Workers:      0,
	}
}

// LoadConfig reads a thresholds YAML file. Fields absent from the file keep
// their DefaultConfig values; unrecognized keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that all angles and capacities are usable.
func (c Config) Validate() error {
	th := c.Thresholds
	for _, a := range []struct {
		name  string
		value float64
	}{
		{"max_user_visible_angle", th.MaxUserVisibleAngle},
		{"self_interference_max", th.SelfInterferenceMax},
		{"non_constellation_interference_max", th.NonConstellationInterferenceMax},
	} {
		if a.value < 0 || a.value > 180 {
			return fmt.Errorf("%w: %s must be in [0, 180], got %f", ErrInvalidConfig, a.name, a.value)
		}
	}
	if th.BeamsPerSatellite < 1 {
		return fmt.Errorf("%w: beams_per_satellite must be positive, got %d", ErrInvalidConfig, th.BeamsPerSatellite)
	}
	if th.ColorsPerSatellite < 1 || th.ColorsPerSatellite > MaxColors {
		return fmt.Errorf("%w: colors_per_satellite must be in [1, %d], got %d", ErrInvalidConfig, MaxColors, th.ColorsPerSatellite)
	}
	if !ValidColorAdvancePolicies[c.ColorAdvance] {
		return fmt.Errorf("%w: unknown color_advance %q", ErrInvalidConfig, c.ColorAdvance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// EffectiveWorkers resolves Workers = 0 to GOMAXPROCS.
func (c Config) EffectiveWorkers() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
