// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"fmt"
	"image"
	"sync/atomic"
)

// CoverageNoiseFloor is the alpha value at or below which a pixel is treated
// as anti-aliasing noise rather than paint.
const CoverageNoiseFloor uint8 = 10

// PixelReader is the read half of a raster surface.
type PixelReader interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// PixelAt returns the color at (x, y). Callers stay within bounds.
	PixelAt(x, y int) Color
}

// PixelSurface is the minimal get/set-pixel capability every rendering
// backend provides. One flood-fill algorithm serves all of them.
type PixelSurface interface {
	PixelReader

	// SetPixel sets the color at (x, y). Callers stay within bounds.
	SetPixel(x, y int, c Color)
}

// Surface owns a fixed-size straight-alpha RGBA8 pixel buffer.
//
// A surface may carry a baseline, the template line art it was seeded
// from. Pixels matching the baseline do not count as covered, and Reset
// restores the baseline instead of clearing to transparent.
//
// Surface is not safe for concurrent mutation; a [Session] serializes
// writers. [Surface.CoveredPixels] and [Surface.Generation] are safe to call
// while another goroutine paints.
type Surface struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel

	// base is the baseline pixel data, nil for a blank page. It is never
	// written after SetBaseline, so clones share it.
	base []uint8

	// floor is the alpha at or below which a pixel is noise.
	floor uint8

	// covered counts pixels that are covered under floor and base.
	covered atomic.Int64

	// gen increments on every mutation.
	gen atomic.Uint64
}

// NewSurface creates a transparent surface with the given dimensions.
// It panics if either dimension is not positive.
func NewSurface(width, height int) *Surface {
	if width <= 0 || height <= 0 {
		panic(fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvariant, width, height))
	}
	return &Surface{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
		floor:  CoverageNoiseFloor,
	}
}

// WrapSurface creates a surface over an existing RGBA8 buffer without
// copying. It panics if len(data) != width*height*4.
func WrapSurface(width, height int, data []uint8) *Surface {
	s := &Surface{width: width, height: height, data: data, floor: CoverageNoiseFloor}
	s.mustValid()
	s.recount()
	return s
}

// mustValid panics when the buffer length invariant does not hold.
func (s *Surface) mustValid() {
	if s.width <= 0 || s.height <= 0 || len(s.data) != s.width*s.height*4 {
		panic(fmt.Errorf("%w: len(buffer)=%d, want %dx%dx4", ErrInvariant, len(s.data), s.width, s.height))
	}
}

// Width returns the width of the surface.
func (s *Surface) Width() int {
	return s.width
}

// Height returns the height of the surface.
func (s *Surface) Height() int {
	return s.height
}

// Bounds returns the surface rectangle.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// Data returns the raw pixel data (RGBA format). Writing to it directly
// bypasses coverage tracking; call through SetPixel instead.
func (s *Surface) Data() []uint8 {
	return s.data
}

// PixelAt returns the color of a single pixel, or Transparent when (x, y)
// is outside the surface.
func (s *Surface) PixelAt(x, y int) Color {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return Transparent
	}
	i := (y*s.width + x) * 4
	return Color{R: s.data[i], G: s.data[i+1], B: s.data[i+2], A: s.data[i+3]}
}

// SetPixel sets the color of a single pixel. Out-of-bounds writes are
// ignored.
func (s *Surface) SetPixel(x, y int, c Color) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	if d := s.put((y*s.width+x)*4, c); d != 0 {
		s.covered.Add(d)
	}
	s.gen.Add(1)
}

// coveredAt reports whether the pixel at byte offset i counts as paint:
// its alpha is above floor and, on a surface with a baseline, it differs
// from the baseline by more than floor in some channel.
func (s *Surface) coveredAt(i int, floor uint8) bool {
	if s.data[i+3] <= floor {
		return false
	}
	if s.base == nil {
		return true
	}
	return absDiff(s.data[i], s.base[i]) > floor ||
		absDiff(s.data[i+1], s.base[i+1]) > floor ||
		absDiff(s.data[i+2], s.base[i+2]) > floor ||
		absDiff(s.data[i+3], s.base[i+3]) > floor
}

// put writes c at byte offset i and returns the change in covered pixels.
func (s *Surface) put(i int, c Color) int64 {
	was := s.coveredAt(i, s.floor)
	s.data[i+0] = c.R
	s.data[i+1] = c.G
	s.data[i+2] = c.B
	s.data[i+3] = c.A
	now := s.coveredAt(i, s.floor)
	switch {
	case now && !was:
		return 1
	case was && !now:
		return -1
	}
	return 0
}

// fillSpan writes c to pixels [x0, x1] of row y. It returns the change in
// covered pixels and how many pixels actually changed value. It does not
// bump the generation.
func (s *Surface) fillSpan(y, x0, x1 int, c Color) (delta int64, changed int) {
	for i := (y*s.width + x0) * 4; i <= (y*s.width+x1)*4; i += 4 {
		if s.data[i] == c.R && s.data[i+1] == c.G && s.data[i+2] == c.B && s.data[i+3] == c.A {
			continue
		}
		delta += s.put(i, c)
		changed++
	}
	return delta, changed
}

// commit publishes a batch of writes.
func (s *Surface) commit(delta int64) {
	if delta != 0 {
		s.covered.Add(delta)
	}
	s.gen.Add(1)
}

// Clear fills the entire surface with a color.
func (s *Surface) Clear(c Color) {
	for i := 0; i < len(s.data); i += 4 {
		s.data[i+0] = c.R
		s.data[i+1] = c.G
		s.data[i+2] = c.B
		s.data[i+3] = c.A
	}
	switch {
	case s.base != nil:
		s.recount()
		return
	case c.A > s.floor:
		s.covered.Store(int64(s.width * s.height))
	default:
		s.covered.Store(0)
	}
	s.gen.Add(1)
}

// Reset restores the baseline, or clears the surface to transparent when
// there is none ("start over"). Nothing is covered afterwards.
func (s *Surface) Reset() {
	if s.base != nil {
		copy(s.data, s.base)
	} else {
		clear(s.data)
	}
	s.covered.Store(0)
	s.gen.Add(1)
}

// SetBaseline makes a copy of base's pixels the surface baseline and
// resets the surface to it. A nil base removes the baseline and clears
// the surface. It panics when the dimensions differ.
func (s *Surface) SetBaseline(base *Surface) {
	if base == nil {
		s.base = nil
		s.Reset()
		return
	}
	if base.width != s.width || base.height != s.height {
		panic(fmt.Errorf("%w: baseline %dx%d for %dx%d", ErrInvariant, base.width, base.height, s.width, s.height))
	}
	s.base = make([]uint8, len(base.data))
	copy(s.base, base.data)
	s.Reset()
}

// HasBaseline reports whether the surface carries a baseline.
func (s *Surface) HasBaseline() bool {
	return s.base != nil
}

// BaselineAt returns the baseline color at (x, y), or Transparent when
// there is no baseline or (x, y) is outside the surface.
func (s *Surface) BaselineAt(x, y int) Color {
	if s.base == nil || x < 0 || x >= s.width || y < 0 || y >= s.height {
		return Transparent
	}
	i := (y*s.width + x) * 4
	return Color{R: s.base[i], G: s.base[i+1], B: s.base[i+2], A: s.base[i+3]}
}

// SetNoiseFloor changes the alpha at or below which a pixel is noise and
// recounts coverage. Set it before painting starts; it must not race with
// CoveredPixels readers that expect the old floor.
func (s *Surface) SetNoiseFloor(alpha uint8) {
	s.floor = alpha
	s.recount()
}

// NoiseFloor returns the alpha at or below which a pixel is noise.
func (s *Surface) NoiseFloor() uint8 {
	return s.floor
}

// Clone returns a deep copy of the surface.
func (s *Surface) Clone() *Surface {
	c := &Surface{
		width:  s.width,
		height: s.height,
		data:   make([]uint8, len(s.data)),
		base:   s.base,
		floor:  s.floor,
	}
	copy(c.data, s.data)
	c.covered.Store(s.covered.Load())
	c.gen.Store(s.gen.Load())
	return c
}

// CopyFrom replaces the surface pixels with those of src, keeping this
// surface's baseline and noise floor. It panics when the dimensions differ.
func (s *Surface) CopyFrom(src *Surface) {
	if src.width != s.width || src.height != s.height {
		panic(fmt.Errorf("%w: copy %dx%d into %dx%d", ErrInvariant, src.width, src.height, s.width, s.height))
	}
	copy(s.data, src.data)
	s.recount()
}

// CoveredPixels returns the number of covered pixels: alpha above the
// noise floor and, with a baseline, different from it. It never blocks and
// is safe to call concurrently with painting.
func (s *Surface) CoveredPixels() int {
	return int(s.covered.Load())
}

// Generation returns a counter that changes on every mutation.
func (s *Surface) Generation() uint64 {
	return s.gen.Load()
}

// Image returns an *image.NRGBA view sharing the surface buffer, for
// handing to an external compositor. Treat it as read-only.
func (s *Surface) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    s.data,
		Stride: s.width * 4,
		Rect:   s.Bounds(),
	}
}

// recount recomputes the coverage counter from the buffer.
func (s *Surface) recount() {
	var n int64
	for i := 0; i < len(s.data); i += 4 {
		if s.coveredAt(i, s.floor) {
			n++
		}
	}
	s.covered.Store(n)
	s.gen.Add(1)
}
