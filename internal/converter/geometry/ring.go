package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"building-converter/internal/converter/models"
)

// ============================================================
// Ring helpers
// ============================================================

func fromPoints(points []models.Point, z float64) []r3.Vec {
	ring := make([]r3.Vec, len(points))
	for i, p := range points {
		ring[i] = r3.Vec{X: p.X, Y: p.Y, Z: z}
	}
	return ring
}

// rectangle returns a counter-clockwise w×h rectangle in the XY plane.
func rectangle(x, y, w, h float64) []r3.Vec {
	return []r3.Vec{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}
}

func lifted(ring []r3.Vec, dz float64) []r3.Vec {
	out := make([]r3.Vec, len(ring))
	for i, p := range ring {
		out[i] = r3.Vec{X: p.X, Y: p.Y, Z: p.Z + dz}
	}
	return out
}

func reversed(ring []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}

// MirrorRing returns the counterpart ring of a shared partition: the first
// point is moved to the end and the sequence is reversed. mirror[0] equals
// ring[0] and mirror[(n-i)%n] equals ring[i].
func MirrorRing(ring []r3.Vec) []r3.Vec {
	if len(ring) == 0 {
		return nil
	}
	rotated := append(append([]r3.Vec{}, ring[1:]...), ring[0])
	return reversed(rotated)
}

// Normal returns the unit normal of a planar ring by Newell's method. The
// normal follows the right-hand rule over the point order.
func Normal(ring []r3.Vec) r3.Vec {
	n := newell(ring)
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// Area returns the planar area of a ring.
func Area(ring []r3.Vec) float64 {
	return r3.Norm(newell(ring)) / 2
}

// ProjectedArea returns the signed area of the ring projected on the XY plane.
func ProjectedArea(ring []r3.Vec) float64 {
	return newell(ring).Z / 2
}

func newell(ring []r3.Vec) r3.Vec {
	var n r3.Vec
	for i := range ring {
		cur := ring[i]
		next := ring[(i+1)%len(ring)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// EdgeAngle returns the angle in [0, 360) between the global X axis and the
// edge from p to q. The sign of the edge's Y component picks the half plane.
func EdgeAngle(p, q r3.Vec) (float64, bool) {
	dx, dy := q.X-p.X, q.Y-p.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return 0, false
	}
	angle := math.Acos(math.Max(-1, math.Min(1, dx/length))) * 180 / math.Pi
	if dy < 0 {
		angle = 360 - angle
	}
	return NormalizeDegrees(angle), true
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg == 0 || deg >= 360 {
		return 0
	}
	return deg
}
