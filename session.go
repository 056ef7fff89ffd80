// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
)

// Session is one coloring page: a surface, at most one stroke in progress
// and the history of applied actions.
//
// All mutations are serialized by the session. Coverage reads never take
// the mutation lock, so a progress timer is neither blocked by nor blocks
// painting. Independent sessions share no state and may run in parallel.
type Session struct {
	mu        sync.Mutex
	surface   *Surface
	renderer  *Renderer
	estimator *CoverageEstimator

	cfg      Config
	symmetry SymmetryMode
	fillOpts []FillOption
	listener func(CoverageSample)

	active  *strokeCapture
	history []Action
}

// strokeCapture accumulates raw pointer samples between BeginStroke and
// EndStroke.
type strokeCapture struct {
	points []Point
	color  Color
	brush  BrushType
	width  float64
}

// NewSession creates a session with a transparent width x height surface.
// It panics if either dimension is not positive.
func NewSession(width, height int, opts ...SessionOption) *Session {
	o := sessionOptions{config: DefaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	s := &Session{
		surface:   NewSurface(width, height),
		renderer:  NewRenderer(),
		estimator: NewCoverageEstimator(o.config.CoverageOptions()...),
		cfg:       o.config,
		symmetry:  o.config.Symmetry,
		fillOpts:  append(o.config.FillOptions(), o.fill...),
		listener:  o.listener,
	}
	if o.symmetry != nil {
		s.symmetry = *o.symmetry
	}
	// The surface counts coverage at the configured floor, so Coverage
	// always reads the lock-free counter.
	s.surface.SetNoiseFloor(o.config.Coverage.NoiseFloor)
	return s
}

// Surface returns the session surface. Callers must not write to it while
// the session is in use; reading it for display is fine between mutations.
func (s *Session) Surface() *Surface {
	return s.surface
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// center is the geometric center of the surface, the symmetry pivot.
func (s *Session) center() Point {
	return Pt(float64(s.surface.Width())/2, float64(s.surface.Height())/2)
}

// LoadTemplate makes img, resampled to the surface size, the page's line
// art and clears the history. The template is the surface baseline:
// StartOver and erasing restore it, and it does not count toward coverage.
func (s *Session) LoadTemplate(img image.Image) {
	tpl := NewSurfaceFromImage(img, s.surface.Width(), s.surface.Height())

	s.mu.Lock()
	s.surface.SetBaseline(tpl)
	s.active = nil
	s.history = nil
	s.mu.Unlock()
	Logger().Info("template loaded", "bounds", img.Bounds().String())
}

// SetSymmetry changes the symmetry mode for subsequent strokes.
func (s *Session) SetSymmetry(mode SymmetryMode) {
	s.mu.Lock()
	s.symmetry = mode
	s.mu.Unlock()
}

// Symmetry returns the current symmetry mode.
func (s *Session) Symmetry() SymmetryMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symmetry
}

// BeginStroke starts capturing a stroke. An empty brush or non-positive
// width falls back to the configured defaults.
func (s *Session) BeginStroke(c Color, brush BrushType, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return ErrStrokeInProgress
	}
	if brush == "" {
		brush = s.cfg.Stroke.DefaultBrush
	}
	if width <= 0 {
		width = s.cfg.Stroke.DefaultWidth
	}
	s.active = &strokeCapture{
		points: make([]Point, 0, 64),
		color:  c,
		brush:  brush,
		width:  width,
	}
	return nil
}

// AddPoint appends a raw pointer sample to the stroke in progress. No
// simplification happens here. Non-finite samples are rejected with
// ErrDegenerateStroke and not recorded.
func (s *Session) AddPoint(p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ErrNoActiveStroke
	}
	if !p.IsFinite() {
		return fmt.Errorf("%w: sample %v is not finite", ErrDegenerateStroke, p)
	}
	s.active.points = append(s.active.points, p)
	return nil
}

// CancelStroke discards the stroke in progress, if any.
func (s *Session) CancelStroke() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// EndStroke finalizes the stroke in progress (pointer-up).
//
// The captured points are simplified once, fanned out into symmetric
// copies, each copy simplified, and the copies are rendered onto the
// surface. It returns the finalized strokes in draw order; the first is the
// stroke as drawn. A stroke without points returns ErrDegenerateStroke and
// draws nothing.
func (s *Session) EndStroke() ([]Stroke, error) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveStroke
	}
	capture := s.active
	s.active = nil

	st, err := NewStroke(capture.points, capture.color, capture.brush, capture.width)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	st.SourceWidth, st.SourceHeight = s.surface.Width(), s.surface.Height()
	st = SimplifyStroke(st, s.cfg.Stroke.SimplifyTolerance)

	copies := s.drawStrokeLocked(st, s.symmetry)
	a := StrokeToAction(st, EncodePoints)
	a.Symmetry = symmetryName(s.symmetry)
	s.history = append(s.history, a)
	s.mu.Unlock()

	s.notify()
	return copies, nil
}

// drawStrokeLocked fans st out by mode, simplifies each copy and renders
// them. Callers hold s.mu.
func (s *Session) drawStrokeLocked(st Stroke, mode SymmetryMode) []Stroke {
	copies := ApplySymmetry(st, mode, s.center())
	for i := range copies {
		copies[i] = SimplifyStroke(copies[i], s.cfg.Stroke.SimplifyTolerance)
	}
	s.renderLocked(copies)
	if len(copies) > 1 {
		Logger().Debug("symmetry applied", "mode", mode.String(), "copies", len(copies))
	}
	return copies
}

// renderLocked draws strokes, batching them when there are enough to be
// worth it. Callers hold s.mu.
func (s *Session) renderLocked(strokes []Stroke) BatchStats {
	var batches []Batch
	if len(strokes) >= s.cfg.Batch.Threshold {
		batches = BatchStrokes(strokes)
	} else {
		batches = Singletons(strokes)
	}
	s.renderer.DrawBatches(s.surface, batches)
	return StatsOf(len(strokes), batches)
}

// DrawStrokes renders already finalized strokes, such as strokes received
// from another device, without applying symmetry. Degenerate strokes are
// skipped.
func (s *Session) DrawStrokes(strokes []Stroke) BatchStats {
	s.mu.Lock()
	stats := s.renderLocked(strokes)
	for _, st := range strokes {
		if st.Validate() == nil {
			s.history = append(s.history, StrokeToAction(st, EncodePoints))
		}
	}
	s.mu.Unlock()

	Logger().Debug("strokes drawn",
		"strokes", stats.Strokes, "batches", stats.Batches, "reduction", stats.Reduction)
	s.notify()
	return stats
}

// Fill performs a tap-to-fill synchronously. The session is locked for the
// duration of the fill, which is bounded by the fill budget.
func (s *Session) Fill(ctx context.Context, req FillRequest) (FillResult, error) {
	s.mu.Lock()
	res, err := Fill(ctx, s.surface, req, s.fillOpts...)
	if err == nil && res.Changed > 0 {
		s.history = append(s.history, FillToAction(req, s.surface.Width(), s.surface.Height()))
	}
	s.mu.Unlock()

	if err == nil && res.Changed > 0 {
		s.notify()
	}
	return res, err
}

// FillOutcome is the result of an asynchronous fill.
type FillOutcome struct {
	Result FillResult
	Err    error
}

// FillAsync plans the fill on a snapshot of the surface in a new goroutine
// and applies it under the session lock when ready, so large fills do not
// hold up the caller. If the surface changed while planning, the fill is
// planned again against the live surface before applying. The channel
// receives exactly one outcome and is then closed.
func (s *Session) FillAsync(ctx context.Context, req FillRequest) <-chan FillOutcome {
	out := make(chan FillOutcome, 1)

	s.mu.Lock()
	snapshot := s.surface.Clone()
	s.mu.Unlock()

	go func() {
		defer close(out)
		plan, err := PlanFill(ctx, snapshot, req, s.fillOpts...)
		if err != nil {
			out <- FillOutcome{Err: err}
			return
		}
		res, err := s.applyPlan(ctx, req, plan)
		out <- FillOutcome{Result: res, Err: err}
	}()
	return out
}

// applyPlan applies a plan computed off-lock, re-planning when the surface
// moved on since the plan's snapshot.
func (s *Session) applyPlan(ctx context.Context, req FillRequest, plan *FillPlan) (FillResult, error) {
	s.mu.Lock()
	if gen := s.surface.Generation(); plan.Generation() != gen {
		Logger().Warn("fill plan stale, replanning",
			"seed", req.Seed, "planned", plan.Generation(), "current", gen)
		var err error
		plan, err = PlanFill(ctx, s.surface, req, s.fillOpts...)
		if err != nil {
			s.mu.Unlock()
			return FillResult{}, err
		}
	}
	res := FillResult{
		Changed: plan.Apply(s.surface),
		Bounds:  plan.Bounds(),
		NoOp:    plan.NoOp(),
	}
	if res.Changed > 0 {
		s.history = append(s.history, FillToAction(req, s.surface.Width(), s.surface.Height()))
	}
	s.mu.Unlock()

	if res.Changed > 0 {
		s.notify()
	}
	return res, nil
}

// Coverage samples the coloring progress. It never blocks on painting.
func (s *Session) Coverage() CoverageSample {
	return s.estimator.Estimate(s.surface)
}

// WatchCoverage calls fn with a fresh coverage sample every interval until
// ctx is done, skipping ticks where the surface did not change. A
// non-positive interval uses the configured one. It returns ctx's error.
func (s *Session) WatchCoverage(ctx context.Context, interval time.Duration, fn func(CoverageSample)) error {
	if interval <= 0 {
		interval = s.cfg.Coverage.Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last uint64
	seen := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gen := s.surface.Generation()
			if seen && gen == last {
				continue
			}
			last, seen = gen, true
			fn(s.Coverage())
		}
	}
}

// notify reports coverage to the listener, if any.
func (s *Session) notify() {
	if s.listener != nil {
		s.listener(s.Coverage())
	}
}

// StartOver restores the loaded template, or clears the surface to
// transparent when none was loaded, and drops any stroke in progress. A
// clear action is recorded.
func (s *Session) StartOver() {
	s.mu.Lock()
	s.surface.Reset()
	s.active = nil
	s.history = append(s.history, ClearAction(s.surface.Width(), s.surface.Height()))
	s.mu.Unlock()

	Logger().Info("session reset")
	s.notify()
}

// History returns a copy of the actions applied so far, in order.
func (s *Session) History() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Action, len(s.history))
	for i, a := range s.history {
		out[i] = a.Clone()
	}
	return out
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	// Applied counts actions that were replayed.
	Applied int

	// Clamped counts actions whose geometry was clamped by ReplayLenient.
	Clamped int

	// Skipped counts malformed actions dropped by ReplayLenient.
	Skipped int
}

// Replay feeds recorded actions back into the session in order.
//
// Size mismatches follow policy (see CheckSurfaceSize). Under ReplayStrict
// the first mismatched or malformed action stops the replay with an error;
// under ReplayLenient such actions are clamped or skipped with a warning.
// Fill budget errors and ctx cancellation always stop the replay. Actions
// replayed before an error stay applied.
func (s *Session) Replay(ctx context.Context, actions []Action, policy ReplayPolicy) (ReplayReport, error) {
	var report ReplayReport
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		if report.Applied > 0 {
			s.notify()
		}
	}()

	w, h := s.surface.Width(), s.surface.Height()
	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		checked, err := CheckSurfaceSize(a, w, h, policy)
		if err == nil {
			var record bool
			record, err = s.replayLocked(ctx, checked)
			if err == nil {
				if checked.SourceWidth != a.SourceWidth || checked.SourceHeight != a.SourceHeight {
					report.Clamped++
				}
				report.Applied++
				if record {
					s.history = append(s.history, checked.Clone())
				}
				continue
			}
		}
		switch {
		case errors.Is(err, ErrInvalidAction) && policy == ReplayLenient:
			Logger().Warn("replay skipped malformed action", "index", i, "err", err)
			report.Skipped++
		default:
			return report, fmt.Errorf("colorbook: replay action %d: %w", i, err)
		}
	}

	Logger().Info("replay finished",
		"applied", report.Applied, "clamped", report.Clamped, "skipped", report.Skipped)
	return report, nil
}

// replayLocked applies a single size-checked action and reports whether it
// belongs in the history; no-op fills do not, as with Fill. Callers hold
// s.mu.
func (s *Session) replayLocked(ctx context.Context, a Action) (bool, error) {
	switch a.Type {
	case ActionStroke:
		st, err := ActionToStroke(a)
		if err != nil {
			return false, err
		}
		mode, err := ParseSymmetryMode(a.Symmetry)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		st = SimplifyStroke(st, s.cfg.Stroke.SimplifyTolerance)
		s.drawStrokeLocked(st, mode)
		return true, nil
	case ActionFill:
		req, err := ActionToFill(a)
		if err != nil {
			return false, err
		}
		res, err := Fill(ctx, s.surface, req, s.fillOpts...)
		if err != nil {
			return false, err
		}
		return res.Changed > 0, nil
	case ActionClear:
		s.surface.Reset()
		s.active = nil
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
}

// symmetryName returns the record form of mode; SymmetryNone is omitted.
func symmetryName(mode SymmetryMode) string {
	if mode == SymmetryNone {
		return ""
	}
	return mode.String()
}
