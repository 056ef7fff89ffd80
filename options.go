// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import "time"

// FillOption configures a flood fill.
//
// Example:
//
//	res, err := colorbook.Fill(ctx, s, req,
//	    colorbook.WithMaxPixels(1<<20),
//	    colorbook.WithMaxDuration(100*time.Millisecond))
type FillOption func(*fillOptions)

// fillOptions holds the budget and classification thresholds of a fill.
type fillOptions struct {
	maxPixels         int
	maxDuration       time.Duration
	boundaryLuminance uint8
	noOpTolerance     uint8
}

// defaultFillOptions returns the default fill options.
func defaultFillOptions() fillOptions {
	return fillOptions{
		maxPixels:         DefaultMaxFillPixels,
		maxDuration:       DefaultMaxFillDuration,
		boundaryLuminance: BoundaryLuminance,
		noOpTolerance:     NoOpMatchTolerance,
	}
}

func resolveFillOptions(opts []FillOption) fillOptions {
	o := defaultFillOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithMaxPixels caps the number of pixels a single fill may touch.
// Values <= 0 disable the pixel budget.
func WithMaxPixels(n int) FillOption {
	return func(o *fillOptions) {
		o.maxPixels = n
	}
}

// WithMaxDuration caps the time spent planning a fill.
// Values <= 0 disable the time budget.
func WithMaxDuration(d time.Duration) FillOption {
	return func(o *fillOptions) {
		o.maxDuration = d
	}
}

// WithBoundaryLuminance sets the channel value below which an opaque pixel
// counts as ink outline.
func WithBoundaryLuminance(v uint8) FillOption {
	return func(o *fillOptions) {
		o.boundaryLuminance = v
	}
}

// WithNoOpTolerance sets how close the seed must be to the fill color for
// the fill to be skipped.
func WithNoOpTolerance(v uint8) FillOption {
	return func(o *fillOptions) {
		o.noOpTolerance = v
	}
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

// sessionOptions holds the construction-time settings of a session.
type sessionOptions struct {
	config   Config
	symmetry *SymmetryMode
	listener func(CoverageSample)
	fill     []FillOption
}

// WithConfig sets the engine thresholds of the session.
func WithConfig(cfg Config) SessionOption {
	return func(o *sessionOptions) {
		o.config = cfg
	}
}

// WithSymmetry sets the initial symmetry mode, overriding the config.
func WithSymmetry(mode SymmetryMode) SessionOption {
	return func(o *sessionOptions) {
		o.symmetry = &mode
	}
}

// WithCoverageListener registers fn to receive a coverage sample after
// every finished stroke and applied fill. fn runs on the goroutine that
// made the change, outside the session lock.
func WithCoverageListener(fn func(CoverageSample)) SessionOption {
	return func(o *sessionOptions) {
		o.listener = fn
	}
}

// WithFillOptions appends fill options applied after those derived from
// the config.
func WithFillOptions(opts ...FillOption) SessionOption {
	return func(o *sessionOptions) {
		o.fill = append(o.fill, opts...)
	}
}
