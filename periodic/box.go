// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package periodic provides a rectangular box with periodic boundary conditions.
package periodic

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Box is the rectangle [0, X) × [0, Y) with both directions wrapped.
type Box struct {
	X, Y float64
}

// NewBox returns a box with sides x and y.
func NewBox(x, y float64) (Box, error) {
	if !(x > 0) || !(y > 0) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return Box{}, fmt.Errorf("periodic: box sides must be positive and finite, got %v x %v", x, y)
	}
	return Box{X: x, Y: y}, nil
}

// NewSquareBox returns a box with both sides equal to l.
func NewSquareBox(l float64) (Box, error) {
	return NewBox(l, l)
}

func (b Box) Area() float64 {
	return b.X * b.Y
}

func (b Box) Size() r2.Point {
	return r2.Point{X: b.X, Y: b.Y}
}

// Bounds returns the primary image of the box.
func (b Box) Bounds() r2.Rect {
	return r2.RectFromPoints(r2.Point{}, b.Size())
}

// MinDist returns a-b under the minimum image convention.
func (b Box) MinDist(a, c r2.Point) r2.Point {
	return b.MinImage(a.Sub(c))
}

// MinImage maps a displacement to its shortest periodic representative.
func (b Box) MinImage(d r2.Point) r2.Point {
	d.X -= b.X * math.Round(d.X/b.X)
	d.Y -= b.Y * math.Round(d.Y/b.Y)
	return d
}

// PutInBox wraps p into [0, X) × [0, Y).
func (b Box) PutInBox(p r2.Point) r2.Point {
	return r2.Point{X: wrap(p.X, b.X), Y: wrap(p.Y, b.Y)}
}

func wrap(v, l float64) float64 {
	v = math.Mod(v, l)
	if v < 0 {
		v += l
	}
	// math.Mod of a tiny negative value can round up to l.
	if v >= l {
		v = 0
	}
	return v
}
