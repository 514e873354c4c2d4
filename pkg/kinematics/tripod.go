package kinematics

import "gonum.org/v1/gonum/spatial/r3"

// TripodSolver is the inverse kinematics of a 3-actuator tripod mount.
//
// The legs sit at the vertices of a triangle inscribed in the footprint: one
// at the front center, two at the rear corners. A plane through three points
// gives roll and pitch control only; yaw has no effect on a 3-leg mechanism
// and is ignored for length computation regardless of the value passed.
type TripodSolver struct {
	cfg      Config
	base     []r3.Vec
	platform []r3.Vec
	pivot    r3.Vec
}

func newTripod(cfg Config) *TripodSolver {
	base := []r3.Vec{
		{X: cfg.Length / 3},                     // front center
		{X: -cfg.Length / 6, Y: cfg.Width / 2},  // rear right
		{X: -cfg.Length / 6, Y: -cfg.Width / 2}, // rear left
	}
	platform := make([]r3.Vec, len(base))
	for i, b := range base {
		platform[i] = r3.Vec{X: b.X, Y: b.Y, Z: cfg.MinHeight}
	}
	return &TripodSolver{
		cfg:      cfg,
		base:     base,
		platform: platform,
		pivot:    r3.Vec{Z: cfg.MinHeight},
	}
}

func (t *TripodSolver) Variant() Variant { return Tripod }
func (t *TripodSolver) Legs() int        { return 3 }
func (t *TripodSolver) Config() Config   { return t.cfg }

// Points returns the base and platform attachment points in the level frame.
func (t *TripodSolver) Points() (base, platform []r3.Vec) {
	return t.base, t.platform
}

// Solve computes the three leg lengths for the given orientation. Yaw is
// accepted for interface symmetry but does not influence the result.
func (t *TripodSolver) Solve(roll, pitch, _ float64) (Lengths, bool) {
	return t.SolveAt(roll, pitch, 0)
}

// SolveAt is Solve with an additional vertical offset of the platform center.
func (t *TripodSolver) SolveAt(roll, pitch, heightOffset float64) (Lengths, bool) {
	offset := r3.Vec{Z: heightOffset}
	lengths := legLengths(t.base, t.platform, t.pivot, offset, roll, pitch, 0)
	return lengths, t.cfg.inReach(lengths)
}

// Level computes the corrective lengths that cancel a measured tilt, i.e.
// Solve(-roll, -pitch, 0). At zero tilt every leg is exactly MinHeight.
func (t *TripodSolver) Level(roll, pitch, _ float64) (Lengths, bool) {
	return t.Solve(-roll, -pitch, 0)
}
