// Package kinematics solves the inverse kinematics of tilt-compensated
// platforms: given a desired or measured orientation it computes the linear
// actuator lengths that realize it.
//
// All angles are radians. Solvers hold only immutable state after
// construction, so a single solver is safe for concurrent use and repeated
// calls with identical arguments return bit-identical results.
package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Variant identifies a platform mechanism. The set is closed; New rejects
// anything else with ErrUnsupportedVariant.
type Variant string

const (
	Tripod      Variant = "tripod"
	Stewart3DOF Variant = "stewart_3dof"
	Stewart6DOF Variant = "stewart_6dof"
)

// Variants returns all supported platform variants in menu order.
func Variants() []Variant {
	return []Variant{Tripod, Stewart3DOF, Stewart6DOF}
}

// ErrUnsupportedVariant is returned by New for an unknown platform variant.
var ErrUnsupportedVariant = fmt.Errorf("kinematics: unsupported platform variant")

// Lengths holds one leg length per actuator, in meters, index-aligned with
// the attachment points returned by Solver.Points.
type Lengths []float64

// Solver computes actuator lengths for a platform orientation.
//
// Solve applies the commanded orientation; Level computes the corrective
// lengths that cancel a measured tilt (the negation of the supplied angles,
// per variant). Both return valid=false, with the lengths still numerically
// defined, when any leg falls outside the actuator travel. Out-of-reach is an
// expected outcome, never an error.
type Solver interface {
	Variant() Variant
	Legs() int
	Config() Config

	Solve(roll, pitch, yaw float64) (Lengths, bool)
	Level(roll, pitch, yaw float64) (Lengths, bool)

	// Points returns the fixed base and platform attachment points, in the
	// un-rotated frame, for presentation.
	Points() (base, platform []r3.Vec)
}

// New builds the solver for the given variant after validating cfg.
func New(v Variant, cfg Config) (Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch v {
	case Tripod:
		return newTripod(cfg), nil
	case Stewart3DOF:
		return newStewart(cfg, false), nil
	case Stewart6DOF:
		return newStewart(cfg, true), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVariant, v)
	}
}
