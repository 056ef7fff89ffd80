// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"
)

// Fill defaults.
const (
	// DefaultFillTolerance is the per-channel tolerance used when a request
	// does not come with one of its own (see Config).
	DefaultFillTolerance uint8 = 32

	// BoundaryLuminance is the channel value below which an opaque pixel is
	// ink outline. Ink is never filled, even when reachable.
	BoundaryLuminance uint8 = 30

	// NoOpMatchTolerance is how close the seed must be to the fill color
	// for the fill to be skipped as already done.
	NoOpMatchTolerance uint8 = 5

	// DefaultMaxFillPixels bounds a single fill to a 4096x4096 region.
	DefaultMaxFillPixels = 4096 * 4096

	// DefaultMaxFillDuration bounds the planning time of a single fill.
	DefaultMaxFillDuration = 250 * time.Millisecond

	// boundaryMinAlpha is the alpha a pixel needs before it can count as
	// ink; transparent paper is never a boundary.
	boundaryMinAlpha = 128

	// budgetCheckInterval is how many spans are scanned between time and
	// context checks.
	budgetCheckInterval = 64
)

// FillRequest describes a tap-to-fill.
type FillRequest struct {
	// Seed is the tapped point in canvas space.
	Seed Point

	// Color is the fill color.
	Color Color

	// Tolerance is the maximum per-channel difference from the seed's
	// original color still treated as the same region.
	Tolerance uint8
}

// NoOpReason explains why a fill changed nothing.
type NoOpReason uint8

const (
	// NoOpNone means the fill was not a no-op.
	NoOpNone NoOpReason = iota

	// NoOpOutOfBounds means the seed lies outside the surface.
	NoOpOutOfBounds

	// NoOpBoundary means the seed is an ink outline pixel.
	NoOpBoundary

	// NoOpSameColor means the seed already has the fill color.
	NoOpSameColor
)

// String returns the reason name.
func (r NoOpReason) String() string {
	switch r {
	case NoOpNone:
		return "none"
	case NoOpOutOfBounds:
		return "out-of-bounds"
	case NoOpBoundary:
		return "boundary"
	case NoOpSameColor:
		return "same-color"
	default:
		return fmt.Sprintf("NoOpReason(%d)", r)
	}
}

// FillResult reports the outcome of an applied fill.
type FillResult struct {
	// Changed is the number of pixels whose value changed. Callers record
	// an undo entry only when it is non-zero.
	Changed int

	// Bounds is the dirty rectangle of the filled region.
	Bounds image.Rectangle

	// NoOp is set when the fill was skipped.
	NoOp NoOpReason
}

// span is a horizontal run [x0, x1] on row y.
type span struct {
	y, x0, x1 int32
}

// FillPlan is a computed but not yet applied flood fill.
//
// Planning only reads the surface, so it can run off the render thread;
// Apply then writes the whole region in one step. A plan either exists in
// full or not at all: budget aborts return no plan.
type FillPlan struct {
	color  Color
	noOp   NoOpReason
	spans  []span
	pixels int
	bounds image.Rectangle
	width  int
	height int

	// generation is the surface generation the plan was computed against,
	// when planned from a *Surface.
	generation uint64
}

// Pixels returns the number of pixels in the planned region.
func (p *FillPlan) Pixels() int {
	return p.pixels
}

// Bounds returns the bounding rectangle of the planned region.
func (p *FillPlan) Bounds() image.Rectangle {
	return p.bounds
}

// NoOp returns why the plan is empty, or NoOpNone.
func (p *FillPlan) NoOp() NoOpReason {
	return p.noOp
}

// Generation returns the surface generation the plan was computed against.
func (p *FillPlan) Generation() uint64 {
	return p.generation
}

// Apply writes the planned region to dst and returns the number of pixels
// that changed. dst must have the dimensions the plan was computed for.
func (p *FillPlan) Apply(dst PixelSurface) int {
	if len(p.spans) == 0 {
		return 0
	}
	if dst.Width() != p.width || dst.Height() != p.height {
		panic(fmt.Errorf("%w: fill plan for %dx%d applied to %dx%d",
			ErrInvariant, p.width, p.height, dst.Width(), dst.Height()))
	}

	changed := 0
	if s, ok := dst.(*Surface); ok {
		s.mustValid()
		var delta int64
		for _, sp := range p.spans {
			d, n := s.fillSpan(int(sp.y), int(sp.x0), int(sp.x1), p.color)
			delta += d
			changed += n
		}
		s.commit(delta)
		return changed
	}

	for _, sp := range p.spans {
		y := int(sp.y)
		for x := int(sp.x0); x <= int(sp.x1); x++ {
			if dst.PixelAt(x, y) != p.color {
				dst.SetPixel(x, y, p.color)
				changed++
			}
		}
	}
	return changed
}

// isBoundary reports whether c is ink outline.
func (o *fillOptions) isBoundary(c Color) bool {
	return c.A >= boundaryMinAlpha &&
		c.R < o.boundaryLuminance &&
		c.G < o.boundaryLuminance &&
		c.B < o.boundaryLuminance
}

// PlanFill computes the maximal 4-connected region around req.Seed whose
// color is within req.Tolerance of the seed's original color, excluding ink
// outline pixels. The surface is only read.
//
// Seeds out of bounds, on ink, or already within the no-op tolerance of the
// fill color produce an empty plan with the matching NoOp reason and a nil
// error. A region larger than the pixel budget, or a scan running longer
// than the time budget, returns ErrBudgetExceeded; a cancelled ctx returns
// its error.
func PlanFill(ctx context.Context, src PixelReader, req FillRequest, opts ...FillOption) (*FillPlan, error) {
	o := resolveFillOptions(opts)
	w, h := src.Width(), src.Height()
	plan := &FillPlan{color: req.Color, width: w, height: h}
	if s, ok := src.(*Surface); ok {
		s.mustValid()
		plan.generation = s.Generation()
	}

	if !req.Seed.IsFinite() {
		plan.noOp = NoOpOutOfBounds
		return plan, nil
	}
	sx, sy := int(math.Floor(req.Seed.X)), int(math.Floor(req.Seed.Y))
	if sx < 0 || sx >= w || sy < 0 || sy >= h {
		plan.noOp = NoOpOutOfBounds
		return plan, nil
	}

	target := src.PixelAt(sx, sy)
	if o.isBoundary(target) {
		plan.noOp = NoOpBoundary
		return plan, nil
	}
	if target.Within(req.Color, o.noOpTolerance) {
		plan.noOp = NoOpSameColor
		return plan, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := func(x, y int) bool {
		c := src.PixelAt(x, y)
		return c.Within(target, req.Tolerance) && !o.isBoundary(c)
	}

	visited := newBitset(w * h)
	stack := make([]image.Point, 0, 64)
	stack = append(stack, image.Pt(sx, sy))
	minX, minY, maxX, maxY := sx, sy, sx, sy
	start := time.Now()

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		row := p.Y * w
		if visited.has(row + p.X) {
			continue
		}

		x0 := p.X
		for x0 > 0 && !visited.has(row+x0-1) && matches(x0-1, p.Y) {
			x0--
		}
		x1 := p.X
		for x1 < w-1 && !visited.has(row+x1+1) && matches(x1+1, p.Y) {
			x1++
		}
		for x := x0; x <= x1; x++ {
			visited.set(row + x)
		}

		//nolint:gosec // G115: coordinates are bounded by the surface size
		plan.spans = append(plan.spans, span{y: int32(p.Y), x0: int32(x0), x1: int32(x1)})
		plan.pixels += x1 - x0 + 1
		minX, maxX = min(minX, x0), max(maxX, x1)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)

		if o.maxPixels > 0 && plan.pixels > o.maxPixels {
			return nil, abortFill(req, fmt.Errorf("%w: region exceeds %d pixels", ErrBudgetExceeded, o.maxPixels))
		}
		if len(plan.spans)%budgetCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, abortFill(req, err)
			}
			if o.maxDuration > 0 && time.Since(start) > o.maxDuration {
				return nil, abortFill(req, fmt.Errorf("%w: scan exceeded %v", ErrBudgetExceeded, o.maxDuration))
			}
		}

		// Push one seed per matching run on the rows above and below.
		for _, ny := range [2]int{p.Y - 1, p.Y + 1} {
			if ny < 0 || ny >= h {
				continue
			}
			nrow := ny * w
			inRun := false
			for x := x0; x <= x1; x++ {
				if !visited.has(nrow+x) && matches(x, ny) {
					if !inRun {
						stack = append(stack, image.Pt(x, ny))
						inRun = true
					}
				} else {
					inRun = false
				}
			}
		}
	}

	plan.bounds = image.Rect(minX, minY, maxX+1, maxY+1)
	Logger().Debug("fill planned",
		"seed", req.Seed, "pixels", plan.pixels, "spans", len(plan.spans), "elapsed", time.Since(start))
	return plan, nil
}

func abortFill(req FillRequest, err error) error {
	Logger().Warn("fill aborted", "seed", req.Seed, "color", req.Color.String(), "err", err)
	return err
}

// Fill flood-fills dst from req.Seed. See PlanFill for the region rule and
// the budget behavior. The surface is either fully filled or, on error,
// left untouched.
func Fill(ctx context.Context, dst PixelSurface, req FillRequest, opts ...FillOption) (FillResult, error) {
	plan, err := PlanFill(ctx, dst, req, opts...)
	if err != nil {
		return FillResult{}, err
	}
	return FillResult{
		Changed: plan.Apply(dst),
		Bounds:  plan.bounds,
		NoOp:    plan.noOp,
	}, nil
}

// bitset is a fixed-size visited set.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) has(i int) bool {
	return b[i>>6]&(1<<(uint(i)&63)) != 0
}

func (b bitset) set(i int) {
	b[i>>6] |= 1 << (uint(i) & 63)
}
