package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ============================================================
// Rigid transforms
// ============================================================

// Transform is a rotation followed by a translation: p' = R·p + T.
type Transform struct {
	R [3][3]float64
	T r3.Vec
}

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
	axisZ = r3.Vec{Z: 1}
)

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Translation returns a pure translation.
func Translation(v r3.Vec) Transform {
	t := Identity()
	t.T = v
	return t
}

// RotationX rotates by deg degrees around the X axis (right-handed).
func RotationX(deg float64) Transform { return rotation(deg, axisX) }

// RotationZ rotates by deg degrees around the Z axis (right-handed).
func RotationZ(deg float64) Transform { return rotation(deg, axisZ) }

func rotation(deg float64, axis r3.Vec) Transform {
	rot := r3.NewRotation(deg*math.Pi/180, axis)
	cols := [3]r3.Vec{rot.Rotate(axisX), rot.Rotate(axisY), rot.Rotate(axisZ)}

	var t Transform
	for j, c := range cols {
		t.R[0][j] = snap(c.X)
		t.R[1][j] = snap(c.Y)
		t.R[2][j] = snap(c.Z)
	}
	return t
}

// snap removes quaternion round-off around 0 and ±1 so axis-aligned
// rotations stay exact.
func snap(v float64) float64 {
	const eps = 1e-12
	switch {
	case math.Abs(v) < eps:
		return 0
	case math.Abs(v-1) < eps:
		return 1
	case math.Abs(v+1) < eps:
		return -1
	}
	return v
}

// Then returns t∘u: u is applied first, t second.
func (t Transform) Then(u Transform) Transform {
	var out Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.R[i][j] = t.R[i][0]*u.R[0][j] + t.R[i][1]*u.R[1][j] + t.R[i][2]*u.R[2][j]
		}
	}
	out.T = r3.Add(t.rotate(u.T), t.T)
	return out
}

// Compose chains transforms root to leaf: Compose(a, b, c) = a∘b∘c.
func Compose(ts ...Transform) Transform {
	out := Identity()
	for _, t := range ts {
		out = out.Then(t)
	}
	return out
}

// Apply maps a point.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.rotate(p), t.T)
}

// ApplyVector maps a direction, ignoring translation.
func (t Transform) ApplyVector(v r3.Vec) r3.Vec {
	return t.rotate(v)
}

// ApplyAll maps a ring of points.
func (t Transform) ApplyAll(ring []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(ring))
	for i, p := range ring {
		out[i] = t.Apply(p)
	}
	return out
}

// Inverse returns the inverse of a rigid transform.
func (t Transform) Inverse() Transform {
	var inv Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			inv.R[i][j] = t.R[j][i]
		}
	}
	inv.T = r3.Scale(-1, inv.rotate(t.T))
	return inv
}

// Scaled multiplies the translation part, used for unit conversion.
func (t Transform) Scaled(f float64) Transform {
	t.T = r3.Scale(f, t.T)
	return t
}

func (t Transform) rotate(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: t.R[0][0]*p.X + t.R[0][1]*p.Y + t.R[0][2]*p.Z,
		Y: t.R[1][0]*p.X + t.R[1][1]*p.Y + t.R[1][2]*p.Z,
		Z: t.R[2][0]*p.X + t.R[2][1]*p.Y + t.R[2][2]*p.Z,
	}
}
