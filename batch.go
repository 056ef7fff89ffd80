// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"math"
)

// BatchThreshold is the stroke count below which batching is not worth
// its overhead.
const BatchThreshold = 10

// BatchKey groups strokes that can be drawn with one draw call.
type BatchKey struct {
	Color Color
	Brush BrushType

	// Width is the stroke width rounded to one decimal.
	Width float64
}

// KeyOf returns the batch key of s.
func KeyOf(s Stroke) BatchKey {
	return BatchKey{
		Color: s.Color,
		Brush: s.Brush,
		Width: math.Round(s.Width*10) / 10,
	}
}

// Batch is a group of strokes drawn as one unit.
type Batch struct {
	Key     BatchKey
	Strokes []Stroke

	// Path is the combined path of all members, one subpath per stroke.
	// It is nil for special-brush batches, which always hold exactly one
	// stroke and are rendered with per-stroke effects.
	Path *Path
}

// Combined reports whether the batch is drawn from its combined path.
func (b Batch) Combined() bool {
	return b.Path != nil
}

// BatchStrokes groups finalized strokes to minimize draw calls.
//
// Strokes sharing a key are merged into one batch with a combined path.
// Strokes with a special brush (glow, neon, glitter, rainbow) are never
// combined and always form singleton batches. Degenerate strokes are
// dropped.
//
// Batches are ordered by the first appearance of their first member. Within
// a combined batch, members keep their relative order, but the batch as a
// whole is drawn at the position of its first member.
func BatchStrokes(strokes []Stroke) []Batch {
	batches := make([]Batch, 0, len(strokes))
	index := make(map[BatchKey]int, len(strokes))
	dropped := 0

	for _, s := range strokes {
		if err := s.Validate(); err != nil {
			dropped++
			continue
		}
		key := KeyOf(s)
		if s.Brush.IsSpecial() {
			batches = append(batches, Batch{Key: key, Strokes: []Stroke{s.Clone()}})
			continue
		}
		if i, ok := index[key]; ok {
			batches[i].Strokes = append(batches[i].Strokes, s.Clone())
			continue
		}
		index[key] = len(batches)
		batches = append(batches, Batch{Key: key, Strokes: []Stroke{s.Clone()}})
	}

	for i := range batches {
		if batches[i].Key.Brush.IsSpecial() {
			continue
		}
		p := NewPath()
		for _, s := range batches[i].Strokes {
			p.AddPolyline(s.Points)
		}
		batches[i].Path = p
	}

	Logger().Debug("strokes batched",
		"strokes", len(strokes), "batches", len(batches), "dropped", dropped)
	return batches
}

// DrawCallReduction returns the percentage of draw calls saved by drawing
// batched draw calls instead of original strokes, clamped to [0, 100].
func DrawCallReduction(original, batched int) float64 {
	if original <= 0 {
		return 0
	}
	r := float64(original-batched) / float64(original) * 100
	return math.Max(0, math.Min(100, r))
}

// ShouldBatch reports whether a drawing of strokeCount strokes is worth
// batching.
func ShouldBatch(strokeCount int) bool {
	return strokeCount >= BatchThreshold
}

// BatchStats summarizes a batching pass.
type BatchStats struct {
	Strokes    int
	Batches    int
	Combined   int
	Singletons int
	Reduction  float64
}

// StatsOf computes batching statistics for batches built from strokeCount
// strokes.
func StatsOf(strokeCount int, batches []Batch) BatchStats {
	st := BatchStats{Strokes: strokeCount, Batches: len(batches)}
	for _, b := range batches {
		if b.Combined() {
			st.Combined++
		} else {
			st.Singletons++
		}
	}
	st.Reduction = DrawCallReduction(strokeCount, len(batches))
	return st
}

// Singletons returns one batch per valid stroke, in order: the draw plan
// used when a drawing is too short to be worth batching.
func Singletons(strokes []Stroke) []Batch {
	batches := make([]Batch, 0, len(strokes))
	for _, s := range strokes {
		if s.Validate() != nil {
			continue
		}
		b := Batch{Key: KeyOf(s), Strokes: []Stroke{s.Clone()}}
		if !s.Brush.IsSpecial() {
			b.Path = NewPath()
			b.Path.AddPolyline(s.Points)
		}
		batches = append(batches, b)
	}
	return batches
}
