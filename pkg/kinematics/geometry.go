package kinematics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// RotationMatrix builds the body rotation R = Rz(yaw) * Ry(pitch) * Rx(roll)
// from Euler angles in radians, right-handed convention.
func RotationMatrix(roll, pitch, yaw float64) *mat.Dense {
	cr, sr := math.Cos(roll), math.Sin(roll)
	cp, sp := math.Cos(pitch), math.Sin(pitch)
	cy, sy := math.Cos(yaw), math.Sin(yaw)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cr, -sr,
		0, sr, cr,
	})
	ry := mat.NewDense(3, 3, []float64{
		cp, 0, sp,
		0, 1, 0,
		-sp, 0, cp,
	})
	rz := mat.NewDense(3, 3, []float64{
		cy, -sy, 0,
		sy, cy, 0,
		0, 0, 1,
	})

	var ryx, r mat.Dense
	ryx.Mul(ry, rx)
	r.Mul(rz, &ryx)
	return &r
}

// rotate applies a 3x3 rotation matrix to a vector.
func rotate(r *mat.Dense, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r.At(0, 0)*v.X + r.At(0, 1)*v.Y + r.At(0, 2)*v.Z,
		Y: r.At(1, 0)*v.X + r.At(1, 1)*v.Y + r.At(1, 2)*v.Z,
		Z: r.At(2, 0)*v.X + r.At(2, 1)*v.Y + r.At(2, 2)*v.Z,
	}
}

// legLengths rotates each platform attachment point about the pivot, applies
// the translation offset, and measures the Euclidean distance to the matching
// base point. This is the one numerically sensitive routine shared by every
// solver variant; index i of the result corresponds to leg i.
func legLengths(base, platform []r3.Vec, pivot, offset r3.Vec, roll, pitch, yaw float64) Lengths {
	r := RotationMatrix(roll, pitch, yaw)
	lengths := make(Lengths, len(platform))
	for i, p := range platform {
		local := r3.Sub(p, pivot)
		world := r3.Add(r3.Add(rotate(r, local), pivot), offset)
		lengths[i] = r3.Norm(r3.Sub(world, base[i]))
	}
	return lengths
}
