// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Stroke is one continuous drawn path with its color, brush and width.
//
// A stroke is finalized once, on pointer-up, and treated as immutable
// afterwards: every operation in this package returns a deep copy rather
// than modifying its argument.
type Stroke struct {
	// ID uniquely identifies the stroke across devices.
	ID string

	// Points is the ordered, non-empty point sequence in canvas space.
	Points []Point

	Color Color
	Brush BrushType
	Width float64

	// SourceWidth and SourceHeight record the canvas size the stroke was
	// drawn on. Zero means unknown.
	SourceWidth  int
	SourceHeight int

	Timestamp time.Time
}

// NewStroke finalizes a stroke from captured points. The points are copied,
// a fresh ID is assigned and the timestamp is set to now. It returns
// ErrDegenerateStroke when points is empty or any coordinate or the width
// is not finite.
func NewStroke(points []Point, c Color, brush BrushType, width float64) (Stroke, error) {
	s := Stroke{
		ID:        uuid.NewString(),
		Points:    clonePoints(points),
		Color:     c,
		Brush:     brush,
		Width:     width,
		Timestamp: time.Now(),
	}
	if err := s.Validate(); err != nil {
		return Stroke{}, err
	}
	return s, nil
}

// Validate reports ErrDegenerateStroke for strokes that cannot be drawn.
func (s Stroke) Validate() error {
	if len(s.Points) == 0 {
		return fmt.Errorf("%w: no points", ErrDegenerateStroke)
	}
	if math.IsNaN(s.Width) || math.IsInf(s.Width, 0) || s.Width < 0 {
		return fmt.Errorf("%w: width %v", ErrDegenerateStroke, s.Width)
	}
	for i, p := range s.Points {
		if !p.IsFinite() {
			return fmt.Errorf("%w: point %d is not finite", ErrDegenerateStroke, i)
		}
	}
	return nil
}

// Clone returns a deep copy of the stroke.
func (s Stroke) Clone() Stroke {
	s.Points = clonePoints(s.Points)
	return s
}

// Transform returns a deep copy with every point mapped through m. The ID
// and metadata are kept.
func (s Stroke) Transform(m Matrix) Stroke {
	s.Points = m.TransformPoints(s.Points)
	return s
}

// Bounds returns the axis-aligned bounding box of the stroke's points,
// ignoring the width.
func (s Stroke) Bounds() (lo, hi Point) {
	if len(s.Points) == 0 {
		return Point{}, Point{}
	}
	lo, hi = s.Points[0], s.Points[0]
	for _, p := range s.Points[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

// Rescale returns a copy mapped from its source canvas to a width x height
// canvas. Strokes without source dimensions are returned as a plain copy.
func (s Stroke) Rescale(width, height int) Stroke {
	if s.SourceWidth <= 0 || s.SourceHeight <= 0 ||
		(s.SourceWidth == width && s.SourceHeight == height) {
		return s.Clone()
	}
	sx := float64(width) / float64(s.SourceWidth)
	sy := float64(height) / float64(s.SourceHeight)
	out := s.Transform(Scale(sx, sy))
	out.Width = s.Width * math.Sqrt(sx*sy)
	out.SourceWidth, out.SourceHeight = width, height
	return out
}
