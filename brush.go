// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import "strings"

// BrushType names the tool a stroke was drawn with. Values are the
// platform-neutral names used in action records; unknown names from newer
// clients pass through unchanged and batch like ordinary brushes.
type BrushType string

// Known brush types.
const (
	BrushCrayon     BrushType = "crayon"
	BrushMarker     BrushType = "marker"
	BrushPencil     BrushType = "pencil"
	BrushPaint      BrushType = "paint"
	BrushWatercolor BrushType = "watercolor"
	BrushSpray      BrushType = "spray"
	BrushEraser     BrushType = "eraser"

	// Special brushes need per-stroke rendering effects and are never
	// combined with other strokes.
	BrushGlow    BrushType = "glow"
	BrushNeon    BrushType = "neon"
	BrushGlitter BrushType = "glitter"
	BrushRainbow BrushType = "rainbow"
)

// knownBrushes lists every brush type this package recognizes.
var knownBrushes = map[BrushType]bool{
	BrushCrayon:     true,
	BrushMarker:     true,
	BrushPencil:     true,
	BrushPaint:      true,
	BrushWatercolor: true,
	BrushSpray:      true,
	BrushEraser:     true,
	BrushGlow:       true,
	BrushNeon:       true,
	BrushGlitter:    true,
	BrushRainbow:    true,
}

// IsSpecial reports whether strokes of this brush must render alone.
func (b BrushType) IsSpecial() bool {
	switch b {
	case BrushGlow, BrushNeon, BrushGlitter, BrushRainbow:
		return true
	}
	return false
}

// IsEraser reports whether the brush removes paint instead of adding it.
func (b BrushType) IsEraser() bool {
	return b == BrushEraser
}

// Known reports whether b is one of the brush types listed above.
func (b BrushType) Known() bool {
	return knownBrushes[b]
}

// ParseBrushType normalizes a brush name from an action record. The second
// result reports whether the name is a known brush type; an empty name maps
// to BrushCrayon.
func ParseBrushType(s string) (BrushType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BrushCrayon, true
	}
	b := BrushType(s)
	return b, b.Known()
}
