// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package periodic

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func TestNewBox(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{"square", 10, 10, false},
		{"rectangle", 10, 5, false},
		{"zero side", 0, 5, true},
		{"negative side", 5, -1, true},
		{"nan side", math.NaN(), 5, true},
		{"inf side", math.Inf(1), 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBox(tt.x, tt.y)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBox(%v, %v) error = %v, wantErr %v", tt.x, tt.y, err, tt.wantErr)
			}
		})
	}
}

func TestBox_MinDist(t *testing.T) {
	b := mustNewBox(t, 10, 4)
	tests := []struct {
		name string
		a, c r2.Point
		want r2.Point
	}{
		{"inside", r2.Point{X: 3, Y: 1}, r2.Point{X: 1, Y: 1}, r2.Point{X: 2, Y: 0}},
		{"wrap x", r2.Point{X: 9.5, Y: 1}, r2.Point{X: 0.5, Y: 1}, r2.Point{X: -1, Y: 0}},
		{"wrap y", r2.Point{X: 1, Y: 0.5}, r2.Point{X: 1, Y: 3.5}, r2.Point{X: 0, Y: 1}},
		{"wrap both", r2.Point{X: 0.25, Y: 3.75}, r2.Point{X: 9.75, Y: 0.25}, r2.Point{X: 0.5, Y: -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.MinDist(tt.a, tt.c)
			if got.Sub(tt.want).Norm() > 1e-12 {
				t.Errorf("b.MinDist(%v, %v) = %v, want %v", tt.a, tt.c, got, tt.want)
			}
		})
	}
}

func TestBox_PutInBox(t *testing.T) {
	b := mustNewBox(t, 10, 4)
	tests := []struct {
		name string
		in   r2.Point
		want r2.Point
	}{
		{"inside", r2.Point{X: 3, Y: 1}, r2.Point{X: 3, Y: 1}},
		{"above", r2.Point{X: 13, Y: 5}, r2.Point{X: 3, Y: 1}},
		{"below", r2.Point{X: -1, Y: -0.5}, r2.Point{X: 9, Y: 3.5}},
		{"far", r2.Point{X: 41, Y: -9}, r2.Point{X: 1, Y: 3}},
		{"edge", r2.Point{X: 10, Y: 4}, r2.Point{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.PutInBox(tt.in)
			if got.Sub(tt.want).Norm() > 1e-12 {
				t.Errorf("b.PutInBox(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !b.Bounds().ContainsPoint(got) || got.X >= b.X || got.Y >= b.Y {
				t.Errorf("b.PutInBox(%v) = %v, outside [0 %v) x [0 %v)", tt.in, got, b.X, b.Y)
			}
		})
	}
}

func TestBox_Area(t *testing.T) {
	b := mustNewBox(t, 10, 4)
	if got := b.Area(); got != 40 {
		t.Errorf("b.Area() = %v, want 40", got)
	}
}

// Helpers

func mustNewBox(t *testing.T, x, y float64) Box {
	t.Helper()
	b, err := NewBox(x, y)
	if err != nil {
		t.Fatalf("NewBox(%v, %v) error = %v, want nil", x, y, err)
	}
	return b
}
