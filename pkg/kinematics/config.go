package kinematics

import "fmt"

// Config describes the physical geometry of a platform.
// All dimensions are in meters. A Config is validated once when a solver is
// constructed and never mutated afterwards; solvers only read from it.
type Config struct {
	Length    float64 `json:"length"`          // base footprint along X
	Width     float64 `json:"width"`           // base footprint along Y
	MinHeight float64 `json:"min_height"`      // leg length fully retracted
	MaxHeight float64 `json:"max_height"`      // leg length fully extended
	Stroke    float64 `json:"actuator_stroke"` // actuator travel
}

// DefaultConfig returns the reference rig geometry: a 6x4 foot platform on
// 400 mm stroke actuators.
func DefaultConfig() Config {
	return Config{
		Length:    1.83,
		Width:     1.22,
		MinHeight: 0.3,
		MaxHeight: 0.7,
		Stroke:    0.4,
	}
}

// ConfigError reports a geometric invariant violated by a Config.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("kinematics: invalid config: %s %s", e.Field, e.Reason)
}

// Validate checks the geometric invariants. It is called by New; callers that
// build a Config by hand can use it directly.
func (c Config) Validate() error {
	switch {
	case c.Length <= 0:
		return &ConfigError{Field: "length", Reason: "must be positive"}
	case c.Width <= 0:
		return &ConfigError{Field: "width", Reason: "must be positive"}
	case c.MinHeight <= 0:
		return &ConfigError{Field: "min_height", Reason: "must be positive"}
	case c.MaxHeight < c.MinHeight:
		return &ConfigError{Field: "max_height", Reason: "must be >= min_height"}
	case c.Stroke <= 0:
		return &ConfigError{Field: "actuator_stroke", Reason: "must be positive"}
	}
	return nil
}

// MaxLength returns the longest physically reachable leg length.
func (c Config) MaxLength() float64 {
	return c.MinHeight + c.Stroke
}

// inReach reports whether every leg length lies within the actuator travel.
func (c Config) inReach(lengths Lengths) bool {
	for _, l := range lengths {
		if l < c.MinHeight || l > c.MaxLength() {
			return false
		}
	}
	return true
}
