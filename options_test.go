// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"testing"
	"time"
)

func TestResolveFillOptionsDefaults(t *testing.T) {
	o := resolveFillOptions(nil)
	if o.maxPixels != DefaultMaxFillPixels || o.maxDuration != DefaultMaxFillDuration ||
		o.boundaryLuminance != BoundaryLuminance || o.noOpTolerance != NoOpMatchTolerance {
		t.Errorf("defaults = %+v", o)
	}
}

func TestResolveFillOptions(t *testing.T) {
	o := resolveFillOptions([]FillOption{
		WithMaxPixels(10),
		nil,
		WithMaxDuration(time.Second),
		WithBoundaryLuminance(40),
		WithNoOpTolerance(0),
		WithMaxPixels(20), // later options win
	})
	want := fillOptions{maxPixels: 20, maxDuration: time.Second, boundaryLuminance: 40, noOpTolerance: 0}
	if o != want {
		t.Errorf("resolveFillOptions() = %+v, want %+v", o, want)
	}
}

func TestSessionOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batch.Threshold = 3

	var o sessionOptions
	called := false
	for _, opt := range []SessionOption{
		WithConfig(cfg),
		WithSymmetry(SymmetryRadial8),
		WithCoverageListener(func(CoverageSample) { called = true }),
		WithFillOptions(WithMaxPixels(5)),
		WithFillOptions(WithNoOpTolerance(1)),
	} {
		opt(&o)
	}

	if o.config.Batch.Threshold != 3 {
		t.Errorf("config threshold = %d, want 3", o.config.Batch.Threshold)
	}
	if o.symmetry == nil || *o.symmetry != SymmetryRadial8 {
		t.Errorf("symmetry = %v, want radial8", o.symmetry)
	}
	if o.listener == nil {
		t.Fatal("listener not set")
	}
	o.listener(CoverageSample{})
	if !called {
		t.Error("listener not invoked")
	}
	if len(o.fill) != 2 {
		t.Errorf("fill options = %d, want 2 accumulated", len(o.fill))
	}
}
