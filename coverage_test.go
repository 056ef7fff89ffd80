// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"image"
	"math"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/gogpu/colorbook/internal/parallel"
)

// paintRows makes rows [0, rows) of s opaque.
func paintRows(s *Surface, rows int, c Color) {
	for y := range rows {
		for x := range s.Width() {
			s.SetPixel(x, y, c)
		}
	}
}

func TestCoverageEmptyAndFull(t *testing.T) {
	s := NewSurface(40, 40)
	e := NewCoverageEstimator()

	if got := e.Estimate(s); got.Percent != 0 || got.Raw != 0 {
		t.Errorf("empty surface = %+v, want 0%%", got)
	}
	s.Clear(White)
	if got := e.Estimate(s); got.Percent != 100 || got.Raw != 1 {
		t.Errorf("full surface = %+v, want 100%%", got)
	}
	s.Reset()
	if got := e.Estimate(s); got.Percent != 0 {
		t.Errorf("after Reset = %v%%, want 0%%", got.Percent)
	}
}

func TestCoverageHalfRawIsComplete(t *testing.T) {
	tests := []struct {
		rows        int
		wantRaw     float64
		wantPercent float64
	}{
		{0, 0, 0},
		{10, 0.1, 20},
		{25, 0.25, 50},
		{50, 0.5, 100},
		{80, 0.8, 100},
	}
	for _, tt := range tests {
		s := NewSurface(100, 100)
		paintRows(s, tt.rows, Red)
		got := NewCoverageEstimator().Estimate(s)
		if math.Abs(got.Raw-tt.wantRaw) > 1e-9 || math.Abs(got.Percent-tt.wantPercent) > 1e-9 {
			t.Errorf("%d rows: raw=%v percent=%v, want %v and %v",
				tt.rows, got.Raw, got.Percent, tt.wantRaw, tt.wantPercent)
		}
	}
}

func TestCoverageNoiseFloor(t *testing.T) {
	s := NewSurface(10, 1)
	s.SetPixel(0, 0, Color{A: CoverageNoiseFloor})
	s.SetPixel(1, 0, Color{A: CoverageNoiseFloor + 1})
	s.SetPixel(2, 0, Color{A: 3})

	e := NewCoverageEstimator()
	if got := e.Estimate(s).Raw; math.Abs(got-0.1) > 1e-9 {
		t.Errorf("Raw = %v, want 0.1 (only alpha above the floor counts)", got)
	}
	if got := NewCoverageEstimator(WithNoiseFloor(0)).Estimate(s).Raw; math.Abs(got-0.3) > 1e-9 {
		t.Errorf("Raw with zero floor = %v, want 0.3", got)
	}
}

func TestCoverageEstimateFollowsSurfaceFloor(t *testing.T) {
	s := NewSurface(10, 1)
	for x := range 10 {
		s.SetPixel(x, 0, Color{A: uint8(x * 5)})
	}
	// Alphas 0..45: 4 pixels above 25, 7 above 10.
	est := NewCoverageEstimator(WithNoiseFloor(25))
	if got := est.Estimate(s).Raw; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("Estimate at floor 25 on a floor-10 surface = %v, want 0.4", got)
	}
	s.SetNoiseFloor(25)
	if s.CoveredPixels() != 4 {
		t.Errorf("CoveredPixels() = %d, want 4", s.CoveredPixels())
	}
	if got := est.Estimate(s).Raw; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("Estimate through the counter = %v, want 0.4", got)
	}
	if got := NewCoverageEstimator().Estimate(s).Raw; math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Estimate at the default floor = %v, want 0.7", got)
	}
}

func TestCoverageCounterMatchesScan(t *testing.T) {
	s := NewSurface(64, 48)
	s.Clear(White)
	r := NewRenderer()
	r.DrawStroke(s, testStroke(t, 20, Blue, BrushMarker, 10))
	r.DrawStroke(s, testStroke(t, 22, Transparent, BrushEraser, 6))
	for x := range 30 {
		s.SetPixel(x, 40, Color{A: 5})
	}
	if _, err := Fill(t.Context(), s, FillRequest{Seed: Pt(60, 44), Color: Green, Tolerance: 10}); err != nil {
		t.Fatal(err)
	}

	e := NewCoverageEstimator()
	scan := e.Scan(s)
	fast := e.Estimate(s)
	if scan.Raw != fast.Raw {
		t.Errorf("counter raw %v != scan raw %v", fast.Raw, scan.Raw)
	}
	if want := int(math.Round(scan.Raw * 64 * 48)); s.CoveredPixels() != want {
		t.Errorf("CoveredPixels() = %d, scan counted %d", s.CoveredPixels(), want)
	}
}

func TestCoverageMonotonicWhilePainting(t *testing.T) {
	s := NewSurface(50, 50)
	e := NewCoverageEstimator()
	r := NewRenderer()
	prev := e.Estimate(s).Percent
	for i := range 5 {
		r.DrawStroke(s, testStroke(t, float64(5+i*9), Red, BrushCrayon, 6))
		cur := e.Estimate(s).Percent
		if cur < prev {
			t.Fatalf("stroke %d: coverage dropped from %v to %v", i, prev, cur)
		}
		prev = cur
	}
	if prev == 0 {
		t.Error("painting did not raise coverage")
	}
}

func TestCoverageNonSurfaceReader(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	is := NewImageSurface(img)
	for x := range 20 {
		is.SetPixel(x, 0, Red)
		is.SetPixel(x, 1, Red)
	}
	got := NewCoverageEstimator().Estimate(is)
	if math.Abs(got.Raw-0.2) > 1e-9 || math.Abs(got.Percent-40) > 1e-9 {
		t.Errorf("Estimate(ImageSurface) = %+v, want raw 0.2 and 40%%", got)
	}
}

func TestCoverageParallelScan(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	s := NewSurface(700, 600)
	for y := 0; y < 600; y += 3 {
		for x := y % 7; x < 700; x += 5 {
			s.SetPixel(x, y, Blue)
		}
	}

	serial := NewCoverageEstimator().Scan(s)
	par := NewCoverageEstimator(WithWorkerPool(pool)).Scan(s)
	if serial.Raw != par.Raw {
		t.Errorf("parallel raw %v != serial raw %v", par.Raw, serial.Raw)
	}
	if want := float64(s.CoveredPixels()) / (700 * 600); par.Raw != want {
		t.Errorf("parallel raw %v != counter %v", par.Raw, want)
	}
}

func TestCoverageCompleteAt(t *testing.T) {
	s := NewSurface(10, 10)
	paintRows(s, 2, Red)

	if got := NewCoverageEstimator(WithCompleteAt(0.4)).Estimate(s).Percent; math.Abs(got-50) > 1e-9 {
		t.Errorf("CompleteAt(0.4) percent = %v, want 50", got)
	}
	for _, bad := range []float64{0, -1, 1.5, math.NaN()} {
		if got := NewCoverageEstimator(WithCompleteAt(bad)).Estimate(s).Percent; math.Abs(got-40) > 1e-9 {
			t.Errorf("CompleteAt(%v) percent = %v, want default 40", bad, got)
		}
	}
}

func TestCoverageSampleTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewCoverageEstimator()
	e.now = func() time.Time { return at }
	if got := e.Estimate(NewSurface(2, 2)).Time; !got.Equal(at) {
		t.Errorf("Time = %v, want %v", got, at)
	}
}

func TestCoverageLabel(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, "0%"},
		{42, "42%"},
		{41.6, "42%"},
		{100, "100%"},
	}
	for _, tt := range tests {
		if got := (CoverageSample{Percent: tt.percent}).Label(language.English); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func BenchmarkCoverageScan(b *testing.B) {
	s := NewSurface(1024, 1024)
	paintRows(s, 300, Red)
	e := NewCoverageEstimator()
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		_ = e.Scan(s)
	}
}

func BenchmarkCoverageEstimate(b *testing.B) {
	s := NewSurface(1024, 1024)
	paintRows(s, 300, Red)
	e := NewCoverageEstimator()
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		_ = e.Estimate(s)
	}
}
