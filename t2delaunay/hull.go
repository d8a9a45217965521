// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package t2delaunay

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
	"github.com/pkg/errors"
)

// lowerHull lifts pts onto the paraboloid z = |p-c|² and returns the faces of
// the lower convex hull, which are the Delaunay triangles of pts. Triangles
// are returned counter-clockwise in the plane.
func lowerHull(pts []r2.Point, eps float64) (tris [][3]int, err error) {
	if len(pts) < 4 {
		return nil, errors.Errorf("t2delaunay: insufficient points for lifting (%d, minimum 4)", len(pts))
	}

	var c r2.Point
	for _, p := range pts {
		c = c.Add(p)
	}
	c = c.Mul(1 / float64(len(pts)))

	lifted := make([]r3.Vector, len(pts))
	var interior r3.Vector
	for i, p := range pts {
		d := p.Sub(c)
		lifted[i] = r3.Vector{X: d.X, Y: d.Y, Z: d.Dot(d)}
		interior = interior.Add(lifted[i])
	}
	interior = interior.Mul(1 / float64(len(pts)))

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("t2delaunay: quickhull: %v", r)
		}
	}()
	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(lifted, true, true, eps)
	if len(ch.Indices) == 0 || len(ch.Indices)%3 != 0 {
		return nil, errors.Errorf("t2delaunay: inconsistent number of indices returned from QuickHull (%d)", len(ch.Indices))
	}

	tris = make([][3]int, 0, len(ch.Indices)/6)
	for i := 0; i < len(ch.Indices); i += 3 {
		a, b, c := ch.Indices[i], ch.Indices[i+1], ch.Indices[i+2]
		pa := lifted[a]
		n := lifted[b].Sub(pa).Cross(lifted[c].Sub(pa))
		if n.Dot(pa.Sub(interior)) < 0 {
			n = n.Mul(-1)
			b, c = c, b
		}
		// The outward normal of a lower face points down, which makes the
		// outward-oriented vertex order clockwise in the plane.
		if !(n.Z < 0) {
			continue
		}
		tris = append(tris, [3]int{a, c, b})
	}
	return tris, nil
}

// Circumcircle returns the center and squared radius of the circle through
// a, b and c. ok is false for collinear or non-finite input.
func Circumcircle(a, b, c r2.Point) (center r2.Point, radius2 float64, ok bool) {
	rel, radius2, ok := circumcircleRel(b.Sub(a), c.Sub(a))
	return a.Add(rel), radius2, ok
}

// circumcircleRel is Circumcircle for a triangle with its first vertex at the
// origin.
func circumcircleRel(b, c r2.Point) (r2.Point, float64, bool) {
	d := 2 * b.Cross(c)
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return r2.Point{}, 0, false
	}
	bb := b.Dot(b)
	cc := c.Dot(c)
	center := r2.Point{
		X: (c.Y*bb - b.Y*cc) / d,
		Y: (b.X*cc - c.X*bb) / d,
	}
	return center, center.Dot(center), true
}

func isFinite(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
