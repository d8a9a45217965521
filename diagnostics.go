// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package t2voronoi

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/2dChan/t2voronoi/periodic"
	"github.com/golang/geo/r2"
)

// WritePositions writes the number of points on the first line, then one
// "x\ty" line per point in slot order.
func (t *Tessellation) WritePositions(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, len(t.points))
	for _, p := range t.points {
		fmt.Fprintf(bw, "%s\t%s\n",
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64))
	}
	return bw.Flush()
}

// ReadPositions reads points written by WritePositions and wraps them into
// box.
func ReadPositions(r io.Reader, box periodic.Box) ([]r2.Point, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("ReadPositions: %w", err)
		}
		return nil, fmt.Errorf("ReadPositions: missing point count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("ReadPositions: bad point count %q", sc.Text())
	}

	points := make([]r2.Point, 0, n)
	for line := 2; len(points) < n && sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("ReadPositions: line %d: want 2 fields, got %d", line, len(fields))
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("ReadPositions: line %d: bad coordinates %q", line, sc.Text())
		}
		points = append(points, box.PutInBox(r2.Point{X: x, Y: y}))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ReadPositions: %w", err)
	}
	if len(points) != n {
		return nil, fmt.Errorf("ReadPositions: got %d points, want %d", len(points), n)
	}
	return points, nil
}

func (t *Tessellation) dumpPositions(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dump positions: %w", err)
	}
	if err := t.WritePositions(f); err != nil {
		f.Close()
		return fmt.Errorf("dump positions: %w", err)
	}
	return f.Close()
}
