// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import "math"

// DefaultTolerance is the default Douglas-Peucker tolerance in pixels.
const DefaultTolerance = 2.0

// Simplify reduces a captured point sequence with Douglas-Peucker
// simplification: the point farthest from the chord between the first and
// last point is kept when its perpendicular distance exceeds tolerance,
// and both halves are simplified in turn; otherwise the range collapses to
// its endpoints.
//
// Sequences of 0-2 points are returned unchanged, as is any sequence the
// simplification would not shorten. The first and last points are always
// kept. Simplify is pure and deterministic; the input is never modified.
// A negative or NaN tolerance is treated as zero.
func Simplify(points []Point, tolerance float64) []Point {
	n := len(points)
	if n <= 2 {
		return points
	}
	if !(tolerance > 0) {
		tolerance = 0
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	// Explicit range stack in place of recursion.
	stack := make([][2]int, 0, 32)
	stack = append(stack, [2]int{0, n - 1})
	kept := 2
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		first, last := r[0], r[1]
		if last-first < 2 {
			continue
		}

		maxDist, index := -1.0, first
		for i := first + 1; i < last; i++ {
			d := perpendicularDistance(points[i], points[first], points[last])
			if d > maxDist {
				maxDist, index = d, i
			}
		}
		if maxDist > tolerance {
			keep[index] = true
			kept++
			stack = append(stack, [2]int{index, last}, [2]int{first, index})
		}
	}

	if kept == n {
		return points
	}
	out := make([]Point, 0, kept)
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// perpendicularDistance returns the distance from p to the line through a
// and b, or to a itself when the chord is degenerate.
func perpendicularDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	length := ab.Length()
	if length == 0 || math.IsNaN(length) {
		return p.Distance(a)
	}
	return math.Abs(ab.Cross(p.Sub(a))) / length
}

// SimplifyStroke returns a copy of s with simplified points and the same
// metadata. Degenerate strokes come back as an unchanged copy.
func SimplifyStroke(s Stroke, tolerance float64) Stroke {
	out := s.Clone()
	out.Points = Simplify(out.Points, tolerance)
	return out
}
