// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewSurface(t *testing.T) {
	s := NewSurface(100, 50)
	if s.Width() != 100 || s.Height() != 50 {
		t.Errorf("size = %dx%d, want 100x50", s.Width(), s.Height())
	}
	if got, want := len(s.Data()), 100*50*4; got != want {
		t.Errorf("len(Data()) = %d, want %d", got, want)
	}
	if s.CoveredPixels() != 0 {
		t.Errorf("CoveredPixels() = %d, want 0", s.CoveredPixels())
	}
	if got := s.PixelAt(10, 10); got != Transparent {
		t.Errorf("PixelAt() = %v, want transparent", got)
	}
}

func TestNewSurfaceInvalidPanics(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer expectInvariantPanic(t)
			NewSurface(tt.w, tt.h)
		})
	}
}

func TestWrapSurface(t *testing.T) {
	data := make([]uint8, 4*4*4)
	data[3] = 255  // (0,0) opaque
	data[7] = 5    // (1,0) below noise floor
	data[11] = 200 // (2,0)
	s := WrapSurface(4, 4, data)

	if s.CoveredPixels() != 2 {
		t.Errorf("CoveredPixels() = %d, want 2", s.CoveredPixels())
	}
	s.SetPixel(3, 3, Red)
	if data[(3*4+3)*4] != 255 {
		t.Error("WrapSurface should share the caller's buffer")
	}
}

func TestWrapSurfaceLengthMismatchPanics(t *testing.T) {
	defer expectInvariantPanic(t)
	WrapSurface(4, 4, make([]uint8, 4*4*4-1))
}

func expectInvariantPanic(t *testing.T) {
	t.Helper()
	r := recover()
	if r == nil {
		t.Fatal("expected panic")
	}
	err, ok := r.(error)
	if !ok || !errors.Is(err, ErrInvariant) {
		t.Fatalf("panic value = %v, want ErrInvariant", r)
	}
}

func TestSurfaceSetPixel(t *testing.T) {
	s := NewSurface(10, 10)
	gen := s.Generation()

	s.SetPixel(2, 3, Red)
	if got := s.PixelAt(2, 3); got != Red {
		t.Errorf("PixelAt(2,3) = %v, want red", got)
	}
	if s.CoveredPixels() != 1 {
		t.Errorf("CoveredPixels() = %d, want 1", s.CoveredPixels())
	}
	if s.Generation() == gen {
		t.Error("SetPixel should bump the generation")
	}

	// Out of bounds writes and reads are ignored.
	s.SetPixel(-1, 0, Red)
	s.SetPixel(10, 0, Red)
	if got := s.PixelAt(10, 10); got != Transparent {
		t.Errorf("PixelAt out of bounds = %v, want transparent", got)
	}

	// Lowering alpha to the noise floor uncovers the pixel.
	s.SetPixel(2, 3, Color{R: 255, A: CoverageNoiseFloor})
	if s.CoveredPixels() != 0 {
		t.Errorf("CoveredPixels() = %d, want 0", s.CoveredPixels())
	}
}

func TestSurfaceClearAndReset(t *testing.T) {
	s := NewSurface(8, 8)
	s.Clear(White)
	if s.CoveredPixels() != 64 {
		t.Errorf("after Clear(White) CoveredPixels() = %d, want 64", s.CoveredPixels())
	}
	if got := s.PixelAt(7, 7); got != White {
		t.Errorf("PixelAt = %v, want white", got)
	}

	s.Reset()
	if s.CoveredPixels() != 0 {
		t.Errorf("after Reset CoveredPixels() = %d, want 0", s.CoveredPixels())
	}
	for i, b := range s.Data() {
		if b != 0 {
			t.Fatalf("Data()[%d] = %d after Reset, want 0", i, b)
		}
	}
}

func TestSurfaceCloneIsIndependent(t *testing.T) {
	s := NewSurface(4, 4)
	s.SetPixel(1, 1, Blue)
	c := s.Clone()

	if c.Generation() != s.Generation() {
		t.Error("Clone should carry the generation")
	}
	c.SetPixel(1, 1, Red)
	if s.PixelAt(1, 1) != Blue {
		t.Error("writing the clone changed the original")
	}

	s.CopyFrom(c)
	if s.PixelAt(1, 1) != Red {
		t.Error("CopyFrom did not copy pixels")
	}
}

func TestSurfaceCopyFromMismatchPanics(t *testing.T) {
	defer expectInvariantPanic(t)
	NewSurface(4, 4).CopyFrom(NewSurface(5, 4))
}

// ---------------------------------------------------------------------------
// Baseline and noise floor
// ---------------------------------------------------------------------------

func TestSurfaceBaseline(t *testing.T) {
	tpl := NewSurface(4, 4)
	tpl.Clear(White)
	tpl.SetPixel(0, 0, Black)

	s := NewSurface(4, 4)
	s.SetPixel(3, 3, Red)
	s.SetBaseline(tpl)
	if !s.HasBaseline() {
		t.Fatal("HasBaseline() = false after SetBaseline")
	}
	if got := s.PixelAt(0, 0); got != Black {
		t.Errorf("PixelAt(0,0) = %v, want the baseline %v", got, Black)
	}
	if got := s.PixelAt(3, 3); got != White {
		t.Errorf("SetBaseline kept old paint: %v", got)
	}
	if s.CoveredPixels() != 0 {
		t.Errorf("CoveredPixels() = %d on the bare baseline, want 0", s.CoveredPixels())
	}

	// Writing the baseline color back is not paint.
	s.SetPixel(1, 1, Blue)
	s.SetPixel(2, 2, Color{R: 250, G: 250, B: 250, A: 255})
	if s.CoveredPixels() != 1 {
		t.Errorf("CoveredPixels() = %d, want 1", s.CoveredPixels())
	}
	s.SetPixel(1, 1, White)
	if s.CoveredPixels() != 0 {
		t.Errorf("CoveredPixels() = %d after restoring the baseline color, want 0", s.CoveredPixels())
	}

	// Later edits to the template do not leak into the baseline.
	tpl.SetPixel(2, 0, Red)
	if got := s.BaselineAt(2, 0); got != White {
		t.Errorf("BaselineAt(2,0) = %v, want %v", got, White)
	}

	s.Clear(Red)
	if s.CoveredPixels() != 16 {
		t.Errorf("after Clear(Red) CoveredPixels() = %d, want 16", s.CoveredPixels())
	}
	s.Reset()
	if s.PixelAt(0, 0) != Black || s.PixelAt(3, 3) != White || s.CoveredPixels() != 0 {
		t.Errorf("Reset did not restore the baseline: %v %v covered=%d",
			s.PixelAt(0, 0), s.PixelAt(3, 3), s.CoveredPixels())
	}

	c := s.Clone()
	if !c.HasBaseline() || c.BaselineAt(0, 0) != Black {
		t.Error("Clone dropped the baseline")
	}

	s.SetBaseline(nil)
	if s.HasBaseline() || s.PixelAt(0, 0) != Transparent {
		t.Error("SetBaseline(nil) should leave a transparent page")
	}
	if got := s.BaselineAt(0, 0); got != Transparent {
		t.Errorf("BaselineAt without baseline = %v", got)
	}
}

func TestSurfaceBaselineMismatchPanics(t *testing.T) {
	defer expectInvariantPanic(t)
	NewSurface(4, 4).SetBaseline(NewSurface(4, 5))
}

func TestSurfaceNoiseFloor(t *testing.T) {
	s := NewSurface(3, 1)
	if s.NoiseFloor() != CoverageNoiseFloor {
		t.Errorf("NoiseFloor() = %d, want %d", s.NoiseFloor(), CoverageNoiseFloor)
	}
	s.SetPixel(0, 0, Color{A: 15})
	s.SetPixel(1, 0, Color{A: 25})
	if s.CoveredPixels() != 2 {
		t.Fatalf("CoveredPixels() = %d, want 2", s.CoveredPixels())
	}

	s.SetNoiseFloor(20)
	if s.CoveredPixels() != 1 {
		t.Errorf("after SetNoiseFloor(20) CoveredPixels() = %d, want 1", s.CoveredPixels())
	}
	s.SetPixel(2, 0, Color{A: 20})
	if s.CoveredPixels() != 1 {
		t.Errorf("alpha at the floor counted: %d", s.CoveredPixels())
	}
	if c := s.Clone(); c.NoiseFloor() != 20 || c.CoveredPixels() != 1 {
		t.Errorf("Clone floor=%d covered=%d", c.NoiseFloor(), c.CoveredPixels())
	}
}

func TestSurfaceImageSharesBuffer(t *testing.T) {
	s := NewSurface(3, 2)
	img := s.Image()
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("Image().Bounds() = %v", img.Bounds())
	}
	s.SetPixel(2, 1, Green)
	if got := img.NRGBAAt(2, 1); got != Green.NRGBA() {
		t.Errorf("Image().NRGBAAt = %v, want %v", got, Green.NRGBA())
	}
}

func TestNewSurfaceFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := range 10 {
		for x := range 20 {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	t.Run("same size", func(t *testing.T) {
		s := NewSurfaceFromImage(src, 20, 10)
		if s.PixelAt(5, 5) != White {
			t.Errorf("PixelAt = %v, want white", s.PixelAt(5, 5))
		}
		if s.CoveredPixels() != 200 {
			t.Errorf("CoveredPixels() = %d, want 200", s.CoveredPixels())
		}
	})

	t.Run("resampled", func(t *testing.T) {
		s := NewSurfaceFromImage(src, 40, 20)
		if s.Width() != 40 || s.Height() != 20 {
			t.Fatalf("size = %dx%d", s.Width(), s.Height())
		}
		if got := s.PixelAt(20, 10); !got.Within(White, 1) {
			t.Errorf("PixelAt(20,10) = %v, want white", got)
		}
	})
}

// ---------------------------------------------------------------------------
// ImageSurface adapter
// ---------------------------------------------------------------------------

func TestImageSurface(t *testing.T) {
	tests := []struct {
		name string
		img  imageSetter
	}{
		{"NRGBA", image.NewNRGBA(image.Rect(0, 0, 6, 4))},
		{"RGBA", image.NewRGBA(image.Rect(0, 0, 6, 4))},
		{"offset origin", image.NewNRGBA(image.Rect(10, 10, 16, 14))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewImageSurface(tt.img)
			if s.Width() != 6 || s.Height() != 4 {
				t.Fatalf("size = %dx%d, want 6x4", s.Width(), s.Height())
			}
			s.SetPixel(1, 2, Red)
			if got := s.PixelAt(1, 2); got != Red {
				t.Errorf("PixelAt(1,2) = %v, want red", got)
			}
			b := tt.img.Bounds()
			if got := FromColor(tt.img.At(b.Min.X+1, b.Min.Y+2)); got != Red {
				t.Errorf("underlying image at (1,2) = %v, want red", got)
			}
		})
	}
}

type imageSetter interface {
	image.Image
	Set(x, y int, c color.Color)
}
