// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// SymmetryMode selects the mirror or rotation set applied to each stroke.
type SymmetryMode uint8

const (
	// SymmetryNone draws the stroke once.
	SymmetryNone SymmetryMode = iota

	// SymmetryVertical mirrors across the vertical axis through the center.
	SymmetryVertical

	// SymmetryHorizontal mirrors across the horizontal axis through the
	// center.
	SymmetryHorizontal

	// SymmetryBoth combines both mirrors: identity, vertical, horizontal
	// and vertical-then-horizontal.
	SymmetryBoth

	// SymmetryRadial4 rotates by 0, 90, 180 and 270 degrees.
	SymmetryRadial4

	// SymmetryRadial8 rotates in 45 degree steps.
	SymmetryRadial8
)

var symmetryNames = [...]string{
	SymmetryNone:       "none",
	SymmetryVertical:   "vertical",
	SymmetryHorizontal: "horizontal",
	SymmetryBoth:       "both",
	SymmetryRadial4:    "radial4",
	SymmetryRadial8:    "radial8",
}

// String returns the mode name.
func (m SymmetryMode) String() string {
	if int(m) < len(symmetryNames) {
		return symmetryNames[m]
	}
	return fmt.Sprintf("SymmetryMode(%d)", m)
}

// ParseSymmetryMode parses a mode name. The empty string is SymmetryNone.
func ParseSymmetryMode(s string) (SymmetryMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SymmetryNone, nil
	}
	for i, name := range symmetryNames {
		if name == s {
			return SymmetryMode(i), nil //nolint:gosec // G115: index < len(symmetryNames)
		}
	}
	return SymmetryNone, fmt.Errorf("colorbook: unknown symmetry mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m SymmetryMode) MarshalText() ([]byte, error) {
	if int(m) >= len(symmetryNames) {
		return nil, fmt.Errorf("colorbook: invalid symmetry mode %d", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SymmetryMode) UnmarshalText(text []byte) error {
	v, err := ParseSymmetryMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Copies returns how many strokes the mode produces per input stroke.
func (m SymmetryMode) Copies() int {
	switch m {
	case SymmetryVertical, SymmetryHorizontal:
		return 2
	case SymmetryBoth, SymmetryRadial4:
		return 4
	case SymmetryRadial8:
		return 8
	default:
		return 1
	}
}

// Transforms returns the mode's matrix set about center. The first matrix
// is always the identity.
//
// For SymmetryBoth the combined mirror applies the vertical reflection
// first, then the horizontal one. Both reflections are about the given
// center, which callers normally set to the geometric center of the canvas.
func (m SymmetryMode) Transforms(center Point) []Matrix {
	switch m {
	case SymmetryVertical:
		return []Matrix{Identity(), ReflectX(center.X)}
	case SymmetryHorizontal:
		return []Matrix{Identity(), ReflectY(center.Y)}
	case SymmetryBoth:
		v, h := ReflectX(center.X), ReflectY(center.Y)
		return []Matrix{Identity(), v, h, h.Multiply(v)}
	case SymmetryRadial4:
		return radialTransforms(4, center)
	case SymmetryRadial8:
		return radialTransforms(8, center)
	default:
		return []Matrix{Identity()}
	}
}

// radialTransforms returns n rotations in equal steps about center.
func radialTransforms(n int, center Point) []Matrix {
	out := make([]Matrix, n)
	for k := range n {
		angle := 2 * math.Pi * float64(k) / float64(n)
		cos, sin := snapUnit(math.Cos(angle)), snapUnit(math.Sin(angle))
		out[k] = Matrix{
			A: cos, B: -sin, C: center.X - cos*center.X + sin*center.Y,
			D: sin, E: cos, F: center.Y - sin*center.X - cos*center.Y,
		}
	}
	return out
}

// snapUnit rounds v to exactly -1, 0 or 1 when it is within rounding error
// of one of them, so quarter turns map grid points to grid points.
func snapUnit(v float64) float64 {
	for _, exact := range [...]float64{-1, 0, 1} {
		if math.Abs(v-exact) < 1e-12 {
			return exact
		}
	}
	return v
}

// ApplySymmetry expands one stroke into the full set of symmetric copies.
// Every copy is an independent deep copy carrying the stroke's color,
// brush, width and source dimensions; the first copy keeps the stroke's ID
// and the others get fresh ones. Each copy is an ordinary stroke and goes
// through Simplify and BatchStrokes like any other.
func ApplySymmetry(s Stroke, mode SymmetryMode, center Point) []Stroke {
	transforms := mode.Transforms(center)
	out := make([]Stroke, len(transforms))
	for i, m := range transforms {
		c := s.Transform(m)
		if i > 0 {
			c.ID = uuid.NewString()
		}
		out[i] = c
	}
	return out
}
