// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import "errors"

var (
	// ErrBudgetExceeded is returned when a flood fill would touch more
	// pixels, or run longer, than its budget allows. The surface is left
	// unchanged.
	ErrBudgetExceeded = errors.New("colorbook: fill budget exceeded")

	// ErrDegenerateStroke is returned when a stroke has no points or
	// carries non-finite coordinates.
	ErrDegenerateStroke = errors.New("colorbook: degenerate stroke")

	// ErrSurfaceSizeMismatch is returned by strict replay when an action
	// was recorded on a canvas of different dimensions. Callers must
	// rescale explicitly with RescaleAction.
	ErrSurfaceSizeMismatch = errors.New("colorbook: action source size does not match surface")

	// ErrNoActiveStroke is returned by EndStroke and AddPoint when no
	// stroke is in progress.
	ErrNoActiveStroke = errors.New("colorbook: no stroke in progress")

	// ErrStrokeInProgress is returned by BeginStroke when the previous
	// stroke has not been finished.
	ErrStrokeInProgress = errors.New("colorbook: stroke already in progress")

	// ErrInvalidAction is returned when an action record is malformed.
	ErrInvalidAction = errors.New("colorbook: invalid action record")

	// ErrInvariant marks a broken surface invariant. It is only ever
	// delivered through a panic: it signals a caller bug with
	// memory-safety implications.
	ErrInvariant = errors.New("colorbook: surface invariant violated")
)
