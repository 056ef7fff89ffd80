// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/gogpu/colorbook/internal/parallel"
)

// RawCoverageComplete is the raw pixel coverage at which a page counts as
// fully colored. Finished pages empirically reach only about half raw
// coverage because outlines and untouched highlights stay unpainted.
const RawCoverageComplete = 0.5

// parallelScanPixels is the surface size above which Scan splits the work
// into row bands on the worker pool.
const parallelScanPixels = 512 * 512

// CoverageSample is a progress reading. It is derived and never persisted.
type CoverageSample struct {
	// Percent is the reported progress in [0, 100].
	Percent float64

	// Raw is the fraction of covered pixels, in [0, 1].
	Raw float64

	// Time is when the sample was taken.
	Time time.Time
}

// Label formats the progress for display in the given language, for
// example "42%" in English or "42 %" in French.
func (c CoverageSample) Label(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprint(number.Percent(math.Round(c.Percent) / 100))
}

// CoverageOption configures a CoverageEstimator.
type CoverageOption func(*CoverageEstimator)

// WithNoiseFloor sets the alpha at or below which a pixel is ignored.
// Estimate reads a Surface's built-in counter only when the surface tracks
// the same floor (see [Surface.SetNoiseFloor]).
func WithNoiseFloor(alpha uint8) CoverageOption {
	return func(e *CoverageEstimator) {
		e.noiseFloor = alpha
	}
}

// WithCompleteAt sets the raw coverage fraction reported as 100%.
// Values outside (0, 1] are ignored.
func WithCompleteAt(raw float64) CoverageOption {
	return func(e *CoverageEstimator) {
		if raw > 0 && raw <= 1 {
			e.completeAt = raw
		}
	}
}

// WithWorkerPool lets Scan split large surfaces into row bands on pool.
// The estimator does not close the pool.
func WithWorkerPool(pool *parallel.WorkerPool) CoverageOption {
	return func(e *CoverageEstimator) {
		e.pool = pool
	}
}

// CoverageEstimator turns a surface's alpha channel into a progress
// percentage. It is read-only, idempotent and free of side effects.
type CoverageEstimator struct {
	noiseFloor uint8
	completeAt float64
	pool       *parallel.WorkerPool
	now        func() time.Time
}

// NewCoverageEstimator creates an estimator with the default noise floor
// and completion point.
func NewCoverageEstimator(opts ...CoverageOption) *CoverageEstimator {
	e := &CoverageEstimator{
		noiseFloor: CoverageNoiseFloor,
		completeAt: RawCoverageComplete,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// coverageCounter is implemented by surfaces that track covered pixels.
type coverageCounter interface {
	CoveredPixels() int
	NoiseFloor() uint8
}

// Estimate samples src. Surfaces that track coverage at the estimator's
// noise floor (such as a *Surface owned by a Session) are read through
// their lock-free counter, so Estimate may run concurrently with painting;
// a reading may lag an in-flight write, which is fine for a progress bar.
// Other readers are scanned in full and must not be written meanwhile.
func (e *CoverageEstimator) Estimate(src PixelReader) CoverageSample {
	if c, ok := src.(coverageCounter); ok && c.NoiseFloor() == e.noiseFloor {
		return e.sample(c.CoveredPixels(), src.Width()*src.Height())
	}
	return e.Scan(src)
}

// Scan walks every pixel of src. On a *Surface with a baseline, pixels
// matching the baseline are not counted. Scan must not run concurrently
// with writes to src.
func (e *CoverageEstimator) Scan(src PixelReader) CoverageSample {
	w, h := src.Width(), src.Height()
	total := w * h
	if total <= 0 {
		return e.sample(0, 0)
	}

	countRows := func(y0, y1 int) int {
		n := 0
		if s, ok := src.(*Surface); ok {
			for i := y0 * w * 4; i < y1*w*4; i += 4 {
				if s.coveredAt(i, e.noiseFloor) {
					n++
				}
			}
			return n
		}
		for y := y0; y < y1; y++ {
			for x := range w {
				if src.PixelAt(x, y).A > e.noiseFloor {
					n++
				}
			}
		}
		return n
	}

	if e.pool == nil || total < parallelScanPixels {
		return e.sample(countRows(0, h), total)
	}

	bands := parallel.Bands(h, e.pool.Workers()*2)
	counts := make([]int, len(bands))
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { counts[i] = countRows(b[0], b[1]) }
	}
	e.pool.ExecuteAll(work)

	covered := 0
	for _, n := range counts {
		covered += n
	}
	return e.sample(covered, total)
}

// sample builds a CoverageSample from a covered pixel count.
func (e *CoverageEstimator) sample(covered, total int) CoverageSample {
	s := CoverageSample{Time: e.now()}
	if total <= 0 {
		return s
	}
	s.Raw = float64(covered) / float64(total)
	s.Percent = math.Max(0, math.Min(100, s.Raw/e.completeAt*100))
	return s
}
