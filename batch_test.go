// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"math"
	"testing"
)

// testStroke builds a finalized stroke along a horizontal line at y.
func testStroke(t testing.TB, y float64, c Color, brush BrushType, width float64) Stroke {
	t.Helper()
	s, err := NewStroke([]Point{Pt(10, y), Pt(40, y), Pt(70, y+2)}, c, brush, width)
	if err != nil {
		t.Fatalf("NewStroke: %v", err)
	}
	return s
}

func TestBatchStrokesScenario(t *testing.T) {
	var strokes []Stroke
	for i := range 10 {
		strokes = append(strokes, testStroke(t, float64(10+i*12), Red, BrushCrayon, 8))
	}
	strokes = append(strokes,
		testStroke(t, 150, Red, BrushGlitter, 8),
		testStroke(t, 170, Red, BrushGlitter, 8))

	batches := BatchStrokes(strokes)
	if len(batches) != 3 {
		t.Fatalf("len(batches) = %d, want 3", len(batches))
	}
	if !batches[0].Combined() || len(batches[0].Strokes) != 10 {
		t.Errorf("batch 0: combined=%v strokes=%d, want combined batch of 10",
			batches[0].Combined(), len(batches[0].Strokes))
	}
	for i := 1; i < 3; i++ {
		if batches[i].Combined() || len(batches[i].Strokes) != 1 {
			t.Errorf("batch %d: combined=%v strokes=%d, want glitter singleton",
				i, batches[i].Combined(), len(batches[i].Strokes))
		}
	}
	if got := len(batches[0].Path.Subpaths()); got != 10 {
		t.Errorf("combined path has %d subpaths, want 10", got)
	}

	st := StatsOf(len(strokes), batches)
	if st.Combined != 1 || st.Singletons != 2 || st.Batches != 3 {
		t.Errorf("StatsOf() = %+v", st)
	}
	if math.Abs(st.Reduction-75) > 1e-9 {
		t.Errorf("Reduction = %v, want 75", st.Reduction)
	}
}

func TestBatchStrokesSpecialBrushesAlwaysSingleton(t *testing.T) {
	for _, brush := range []BrushType{BrushGlow, BrushNeon, BrushGlitter, BrushRainbow} {
		t.Run(string(brush), func(t *testing.T) {
			strokes := []Stroke{
				testStroke(t, 10, Blue, brush, 4),
				testStroke(t, 20, Blue, brush, 4),
				testStroke(t, 30, Blue, brush, 4),
			}
			batches := BatchStrokes(strokes)
			if len(batches) != 3 {
				t.Fatalf("len(batches) = %d, want 3", len(batches))
			}
			for i, b := range batches {
				if len(b.Strokes) != 1 || b.Path != nil {
					t.Errorf("batch %d is not a singleton: %d strokes", i, len(b.Strokes))
				}
			}
		})
	}
}

func TestBatchStrokesOrderAndKeys(t *testing.T) {
	a1 := testStroke(t, 10, Red, BrushCrayon, 8)
	b1 := testStroke(t, 20, Blue, BrushCrayon, 8)
	a2 := testStroke(t, 30, Red, BrushCrayon, 8.04) // rounds to the same width
	c1 := testStroke(t, 40, Red, BrushCrayon, 8.2)
	d1 := testStroke(t, 50, Red, BrushMarker, 8)

	batches := BatchStrokes([]Stroke{a1, b1, a2, c1, d1})
	if len(batches) != 4 {
		t.Fatalf("len(batches) = %d, want 4", len(batches))
	}
	wantFirst := []string{a1.ID, b1.ID, c1.ID, d1.ID}
	for i, b := range batches {
		if b.Strokes[0].ID != wantFirst[i] {
			t.Errorf("batch %d starts with %s, want %s", i, b.Strokes[0].ID, wantFirst[i])
		}
	}
	if len(batches[0].Strokes) != 2 || batches[0].Strokes[1].ID != a2.ID {
		t.Errorf("batch 0 should hold a1, a2 in order")
	}
	if batches[0].Key.Width != 8 {
		t.Errorf("batch 0 width = %v, want 8", batches[0].Key.Width)
	}
}

func TestBatchStrokesDropsDegenerate(t *testing.T) {
	good := testStroke(t, 10, Red, BrushCrayon, 8)
	empty := Stroke{ID: "empty", Color: Red, Brush: BrushCrayon, Width: 8}
	nan := Stroke{ID: "nan", Points: []Point{Pt(math.NaN(), 1)}, Color: Red, Brush: BrushCrayon, Width: 8}

	batches := BatchStrokes([]Stroke{empty, good, nan})
	if len(batches) != 1 || len(batches[0].Strokes) != 1 || batches[0].Strokes[0].ID != good.ID {
		t.Errorf("BatchStrokes() = %+v, want only the valid stroke", batches)
	}
	if got := BatchStrokes(nil); len(got) != 0 {
		t.Errorf("BatchStrokes(nil) = %v, want empty", got)
	}
}

func TestBatchStrokesDeepCopies(t *testing.T) {
	s := testStroke(t, 10, Red, BrushCrayon, 8)
	batches := BatchStrokes([]Stroke{s})
	batches[0].Strokes[0].Points[0] = Pt(-5, -5)
	if s.Points[0] == Pt(-5, -5) {
		t.Error("batch members alias the input strokes")
	}
}

func TestDrawCallReduction(t *testing.T) {
	tests := []struct {
		original, batched int
		want              float64
	}{
		{0, 0, 0},
		{-3, 1, 0},
		{12, 3, 75},
		{10, 10, 0},
		{4, 1, 75},
		{5, 7, 0},
		{1, 0, 100},
	}
	for _, tt := range tests {
		if got := DrawCallReduction(tt.original, tt.batched); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DrawCallReduction(%d, %d) = %v, want %v", tt.original, tt.batched, got, tt.want)
		}
	}
}

func TestShouldBatch(t *testing.T) {
	tests := []struct {
		n    int
		want bool
	}{
		{0, false},
		{1, false},
		{9, false},
		{10, true},
		{500, true},
	}
	for _, tt := range tests {
		if got := ShouldBatch(tt.n); got != tt.want {
			t.Errorf("ShouldBatch(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestSingletons(t *testing.T) {
	strokes := []Stroke{
		testStroke(t, 10, Red, BrushCrayon, 8),
		testStroke(t, 20, Red, BrushCrayon, 8),
		testStroke(t, 30, Red, BrushNeon, 8),
		{ID: "empty"},
	}
	batches := Singletons(strokes)
	if len(batches) != 3 {
		t.Fatalf("len(Singletons) = %d, want 3", len(batches))
	}
	if !batches[0].Combined() || !batches[1].Combined() || batches[2].Combined() {
		t.Error("ordinary strokes get a path, special brushes do not")
	}
}

func TestBatchingPreservesGeometry(t *testing.T) {
	// Disjoint strokes sharing a key render to identical pixels whether
	// drawn one by one or as a single combined batch.
	var strokes []Stroke
	for i := range 12 {
		strokes = append(strokes, testStroke(t, float64(8+i*10), Blue, BrushMarker, 4))
	}
	strokes = append(strokes, testStroke(t, 135, Green, BrushRainbow, 4))

	one := NewSurface(100, 150)
	one.Clear(White)
	all := one.Clone()

	r := NewRenderer()
	singleCalls := r.DrawBatches(one, Singletons(strokes))
	batchCalls := r.DrawBatches(all, BatchStrokes(strokes))

	if singleCalls != 13 || batchCalls != 2 {
		t.Errorf("draw calls: singletons %d, batched %d; want 13 and 2", singleCalls, batchCalls)
	}
	if x, y, ok := sameSurface(one, all, 1); !ok {
		t.Errorf("batched rendering differs at (%d,%d): %v vs %v", x, y, one.PixelAt(x, y), all.PixelAt(x, y))
	}
}

// sameSurface reports whether every channel of a and b is within tol,
// returning the first differing pixel otherwise.
func sameSurface(a, b *Surface, tol uint8) (int, int, bool) {
	for y := range a.Height() {
		for x := range a.Width() {
			if !a.PixelAt(x, y).Within(b.PixelAt(x, y), tol) {
				return x, y, false
			}
		}
	}
	return 0, 0, true
}

func BenchmarkBatchStrokes(b *testing.B) {
	colors := []Color{Red, Green, Blue, Yellow}
	strokes := make([]Stroke, 0, 400)
	for i := range 400 {
		strokes = append(strokes, testStroke(b, float64(i), colors[i%len(colors)], BrushCrayon, 8))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		_ = BatchStrokes(strokes)
	}
}
