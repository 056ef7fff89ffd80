// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package colorbook provides the canvas coloring engine of a coloring-book
// application.
//
// # Overview
//
// colorbook is a pure, in-process library operating on one raster surface
// and a list of strokes per session. It never touches the network, the
// filesystem or a database: input arrives as a decoded template image and
// raw pointer samples, output is a mutated surface and a list of batched
// strokes handed to an external renderer.
//
// # Quick Start
//
//	import "github.com/gogpu/colorbook"
//
//	// A session owns one surface; "start over" resets it.
//	s := colorbook.NewSession(1024, 768)
//
//	// Tap-to-fill.
//	res, err := s.Fill(ctx, colorbook.FillRequest{
//	    Seed:      colorbook.Pt(50, 50),
//	    Color:     colorbook.Hex("#ff0000"),
//	    Tolerance: 32,
//	})
//
//	// Freehand drawing.
//	s.BeginStroke(colorbook.Hex("#3366ff"), colorbook.BrushCrayon, 8)
//	s.AddPoint(colorbook.Pt(10, 10))
//	s.AddPoint(colorbook.Pt(40, 12))
//	strokes, err := s.EndStroke()
//
//	// Progress bar.
//	pct := s.Coverage().Percent
//
// # Pipeline
//
// pointer input → raw points → [Simplify] → optional [ApplySymmetry] fan-out
// → [BatchStrokes] → renderer. Flood fill ([Fill], [PlanFill]) is a separate
// tap-triggered path operating directly on a [PixelSurface]. The
// [CoverageEstimator] reads the surface independently on a timer.
//
// # Coordinate System
//
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Angles in radians; positive angles rotate clockwise on screen
//
// # Errors
//
// The algorithmic components prefer explicit result values (changed-pixel
// counts, transformed lists, no-op reasons) over errors. Errors are returned
// for aborted fills ([ErrBudgetExceeded]) and mismatched replay dimensions
// ([ErrSurfaceSizeMismatch]). Only a broken surface invariant panics.
package colorbook

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
