package kinematics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Stewart hexagon proportions relative to the footprint.
const (
	hexAngleOffset   = math.Pi / 6 // 30 degrees
	platformHexScale = 0.8
)

// StewartSolver is the inverse kinematics of a 6-actuator Stewart platform.
//
// Base and platform attachment points form interleaved hexagons, the platform
// hexagon slightly smaller and rotated a further 30 degrees. The same
// geometry serves both DOF modes; the 3-DOF mode exists to signal that the
// platform is not meant to be yaw-commanded independently, so its leveling
// correction leaves yaw alone. Solve still applies yaw to the rotation in
// both modes, since the mechanism couples it regardless.
type StewartSolver struct {
	cfg        Config
	yawControl bool // 6-DOF mode: leveling also cancels yaw
	base       []r3.Vec
	platform   []r3.Vec
	pivot      r3.Vec
}

func newStewart(cfg Config, yawControl bool) *StewartSolver {
	baseRadius := math.Min(cfg.Length, cfg.Width) / 3
	platformRadius := baseRadius * platformHexScale

	base := make([]r3.Vec, 6)
	platform := make([]r3.Vec, 6)
	for i := 0; i < 6; i++ {
		angle := 2*math.Pi*float64(i)/6 + hexAngleOffset
		base[i] = r3.Vec{
			X: baseRadius * math.Cos(angle),
			Y: baseRadius * math.Sin(angle),
		}
		// Platform points are offset a further 30 degrees so legs cross in
		// pairs, the usual hexapod arrangement.
		platform[i] = r3.Vec{
			X: platformRadius * math.Cos(angle+hexAngleOffset),
			Y: platformRadius * math.Sin(angle+hexAngleOffset),
			Z: cfg.MinHeight,
		}
	}

	return &StewartSolver{
		cfg:        cfg,
		yawControl: yawControl,
		base:       base,
		platform:   platform,
		pivot:      r3.Vec{Z: cfg.MinHeight},
	}
}

func (s *StewartSolver) Variant() Variant {
	if s.yawControl {
		return Stewart6DOF
	}
	return Stewart3DOF
}

func (s *StewartSolver) Legs() int      { return 6 }
func (s *StewartSolver) Config() Config { return s.cfg }

// Points returns the base and platform attachment points in the level frame.
func (s *StewartSolver) Points() (base, platform []r3.Vec) {
	return s.base, s.platform
}

// Solve computes the six leg lengths for the given orientation. The full
// rotation matrix is applied in both DOF modes.
func (s *StewartSolver) Solve(roll, pitch, yaw float64) (Lengths, bool) {
	return s.SolveAt(roll, pitch, yaw, r3.Vec{})
}

// SolveAt is Solve with an additional translation of the platform center.
func (s *StewartSolver) SolveAt(roll, pitch, yaw float64, offset r3.Vec) (Lengths, bool) {
	lengths := legLengths(s.base, s.platform, s.pivot, offset, roll, pitch, yaw)
	return lengths, s.cfg.inReach(lengths)
}

// Level computes the corrective lengths that cancel a measured tilt: the
// negation of the supplied angles, with yaw negated only in 6-DOF mode.
func (s *StewartSolver) Level(roll, pitch, yaw float64) (Lengths, bool) {
	if !s.yawControl {
		return s.Solve(-roll, -pitch, 0)
	}
	return s.Solve(-roll, -pitch, -yaw)
}
