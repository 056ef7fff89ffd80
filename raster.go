// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Renderer is the reference CPU renderer for finalized strokes. It
// rasterizes stroke geometry into an anti-aliased coverage mask with
// golang.org/x/image/vector and composites it onto a Surface.
//
// A combined batch is one draw call: all member strokes are rasterized into
// a single mask and composited once. Special-brush batches hold a single
// stroke and are drawn one at a time; their visual effects belong to the
// platform renderer, so here they render as plain strokes.
//
// Renderer reuses its scratch buffers and is not safe for concurrent use.
type Renderer struct {
	z    *vector.Rasterizer
	mask *image.Alpha
}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		z:    vector.NewRasterizer(1, 1),
		mask: image.NewAlpha(image.Rect(0, 0, 1, 1)),
	}
}

// DrawBatches draws batches in order and returns the number of draw calls.
func (r *Renderer) DrawBatches(dst *Surface, batches []Batch) int {
	calls := 0
	for _, b := range batches {
		calls += r.DrawBatch(dst, b)
	}
	return calls
}

// DrawBatch draws one batch and returns the number of draw calls it took.
func (r *Renderer) DrawBatch(dst *Surface, b Batch) int {
	if b.Combined() {
		if r.draw(dst, b.Key, b.Path.Subpaths()) {
			return 1
		}
		return 0
	}
	calls := 0
	for _, s := range b.Strokes {
		if r.DrawStroke(dst, s) {
			calls++
		}
	}
	return calls
}

// DrawStroke draws a single stroke, reporting whether anything was drawn.
func (r *Renderer) DrawStroke(dst *Surface, s Stroke) bool {
	if s.Validate() != nil {
		return false
	}
	return r.draw(dst, KeyOf(s), [][]Point{s.Points})
}

// draw rasterizes polylines with the key's width and composites the result.
func (r *Renderer) draw(dst *Surface, key BatchKey, lines [][]Point) bool {
	dst.mustValid()
	half := math.Max(key.Width, 1) / 2

	bounds, ok := polylineBounds(lines, half+1)
	if !ok {
		return false
	}
	bounds = bounds.Intersect(dst.Bounds())
	if bounds.Empty() {
		return false
	}

	w, h := bounds.Dx(), bounds.Dy()
	r.z.Reset(w, h)
	r.z.DrawOp = draw.Src
	off := Pt(float64(bounds.Min.X), float64(bounds.Min.Y))
	for _, line := range lines {
		addPolyline(r.z, line, half, off)
	}

	mask := r.scratchMask(w, h)
	r.z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	var delta int64
	for y := range h {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, m := range row {
			if m == 0 {
				continue
			}
			delta += composite(dst, bounds.Min.X+x, bounds.Min.Y+y, key, m)
		}
	}
	dst.commit(delta)
	return true
}

// scratchMask returns a zeroed w x h mask, reusing the previous buffer when
// it is large enough.
func (r *Renderer) scratchMask(w, h int) *image.Alpha {
	if cap(r.mask.Pix) >= w*h {
		r.mask.Pix = r.mask.Pix[:w*h]
		clear(r.mask.Pix)
		r.mask.Stride = w
		r.mask.Rect = image.Rect(0, 0, w, h)
		return r.mask
	}
	r.mask = image.NewAlpha(image.Rect(0, 0, w, h))
	return r.mask
}

// composite blends the key's color into dst at (x, y) with mask coverage m
// and returns the change in covered pixels. Erasers blend back toward the
// surface baseline, or remove alpha (destination-out) when there is none;
// everything else is straight-alpha source-over.
func composite(dst *Surface, x, y int, key BatchKey, m uint8) int64 {
	i := (y*dst.width + x) * 4
	d := dst.data[i : i+4 : i+4]
	dstA := float64(d[3]) / 255
	cov := float64(m) / 255

	if key.Brush.IsEraser() {
		if dst.base != nil {
			b := dst.base[i : i+4 : i+4]
			lerp := func(dc, bc uint8) uint8 {
				return toByte((float64(dc)*(1-cov) + float64(bc)*cov) / 255)
			}
			return dst.put(i, Color{R: lerp(d[0], b[0]), G: lerp(d[1], b[1]), B: lerp(d[2], b[2]), A: lerp(d[3], b[3])})
		}
		outA := dstA * (1 - cov)
		return dst.put(i, Color{R: d[0], G: d[1], B: d[2], A: toByte(outA)})
	}

	srcA := float64(key.Color.A) / 255 * cov
	outA := srcA + dstA*(1-srcA)
	if outA <= 0 {
		return 0
	}
	blend := func(s, dc uint8) uint8 {
		return toByte((float64(s)/255*srcA + float64(dc)/255*dstA*(1-srcA)) / outA)
	}
	return dst.put(i, Color{
		R: blend(key.Color.R, d[0]),
		G: blend(key.Color.G, d[1]),
		B: blend(key.Color.B, d[2]),
		A: toByte(outA),
	})
}

func toByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v*255))))
}

// polylineBounds returns the integer bounds of lines grown by pad.
func polylineBounds(lines [][]Point, pad float64) (image.Rectangle, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, line := range lines {
		for _, p := range line {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return image.Rectangle{}, false
	}
	return image.Rect(
		int(math.Floor(minX-pad)), int(math.Floor(minY-pad)),
		int(math.Ceil(maxX+pad)), int(math.Ceil(maxY+pad)),
	), true
}

// addPolyline adds a round-capped, round-joined thick polyline to z as a
// union of segment quads and joint discs. All shapes share one winding
// direction so overlaps accumulate instead of cancelling. Points are in
// surface space; off is the mask origin.
func addPolyline(z *vector.Rasterizer, line []Point, half float64, off Point) {
	for _, p := range line {
		addDisc(z, p, half, off)
	}
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		d := b.Sub(a)
		if d.Length() == 0 {
			continue
		}
		n := d.Normalize().Perp().Mul(half)
		quad := [4]Point{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
		// Keep the same orientation as addDisc.
		if signedArea(quad[:]) > 0 {
			quad[0], quad[1], quad[2], quad[3] = quad[3], quad[2], quad[1], quad[0]
		}
		moveTo(z, quad[0], off)
		for _, q := range quad[1:] {
			lineTo(z, q, off)
		}
		z.ClosePath()
	}
}

// addDisc adds a polygonal disc with negative signed area.
func addDisc(z *vector.Rasterizer, c Point, radius float64, off Point) {
	segments := int(math.Ceil(2 * math.Pi * radius / 2))
	segments = max(8, min(segments, 64))
	step := 2 * math.Pi / float64(segments)
	moveTo(z, Pt(c.X+radius, c.Y), off)
	for k := 1; k < segments; k++ {
		a := -step * float64(k)
		lineTo(z, Pt(c.X+radius*math.Cos(a), c.Y+radius*math.Sin(a)), off)
	}
	z.ClosePath()
}

// signedArea returns the shoelace area of a closed polygon.
func signedArea(poly []Point) float64 {
	area := 0.0
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		area += p.Cross(q)
	}
	return area / 2
}

// subpixel is the vertex grid. Vertices are snapped to it in surface space,
// so a stroke rasterizes to the same pixels alone or inside a batch.
const subpixel = 256

func snap(v, origin float64) float32 {
	return float32(math.Round(v*subpixel)/subpixel - origin)
}

func moveTo(z *vector.Rasterizer, p, off Point) { z.MoveTo(snap(p.X, off.X), snap(p.Y, off.Y)) }
func lineTo(z *vector.Rasterizer, p, off Point) { z.LineTo(snap(p.X, off.X), snap(p.Y, off.Y)) }
