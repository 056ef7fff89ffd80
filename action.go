// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// ActionType is the kind of a recorded action.
type ActionType string

// Action types.
const (
	ActionStroke ActionType = "stroke"
	ActionFill   ActionType = "fill"
	ActionClear  ActionType = "clear"
)

// Action is the platform-neutral record of one user action, suitable for
// storage and cross-device replay by an external persistence layer.
//
// A stroke carries its geometry either as Points or as an SVG-style Path
// string, never both. A fill carries its tap position in Seed. Timestamp is
// in Unix milliseconds. SourceWidth and SourceHeight are the canvas size the
// action was recorded on; zero means unknown.
type Action struct {
	ID           string     `json:"id,omitempty"`
	Type         ActionType `json:"type"`
	Points       []Point    `json:"points,omitempty"`
	Path         string     `json:"path,omitempty"`
	Color        string     `json:"color,omitempty"`
	BrushType    BrushType  `json:"brushType,omitempty"`
	StrokeWidth  float64    `json:"strokeWidth,omitempty"`
	Seed         *Point     `json:"seed,omitempty"`
	Tolerance    *uint8     `json:"tolerance,omitempty"`
	Symmetry     string     `json:"symmetry,omitempty"`
	Timestamp    int64      `json:"timestamp"`
	SourceWidth  int        `json:"sourceWidth,omitempty"`
	SourceHeight int        `json:"sourceHeight,omitempty"`
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	a.Points = clonePoints(a.Points)
	if a.Seed != nil {
		seed := *a.Seed
		a.Seed = &seed
	}
	if a.Tolerance != nil {
		tol := *a.Tolerance
		a.Tolerance = &tol
	}
	return a
}

// PointEncoding selects how StrokeToAction stores stroke geometry.
type PointEncoding uint8

const (
	// EncodePoints stores geometry as a point list.
	EncodePoints PointEncoding = iota

	// EncodePath stores geometry as an SVG-style path string.
	EncodePath
)

// StrokeToAction converts a finalized stroke into an action record.
func StrokeToAction(s Stroke, enc PointEncoding) Action {
	a := Action{
		ID:           s.ID,
		Type:         ActionStroke,
		Color:        s.Color.String(),
		BrushType:    s.Brush,
		StrokeWidth:  s.Width,
		Timestamp:    unixMilli(s.Timestamp),
		SourceWidth:  s.SourceWidth,
		SourceHeight: s.SourceHeight,
	}
	if enc == EncodePath {
		p := NewPath()
		p.AddPolyline(s.Points)
		a.Path = p.String()
	} else {
		a.Points = clonePoints(s.Points)
	}
	return a
}

// ActionToStroke converts a stroke action back into a stroke. Records
// without an ID get a fresh one; brush names from newer clients are kept
// as they are.
func ActionToStroke(a Action) (Stroke, error) {
	if a.Type != ActionStroke {
		return Stroke{}, fmt.Errorf("%w: %q is not a stroke", ErrInvalidAction, a.Type)
	}
	c, err := ParseHex(a.Color)
	if err != nil {
		return Stroke{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	brush, _ := ParseBrushType(string(a.BrushType))
	points, err := a.geometry()
	if err != nil {
		return Stroke{}, err
	}

	s := Stroke{
		ID:           a.ID,
		Points:       points,
		Color:        c,
		Brush:        brush,
		Width:        a.StrokeWidth,
		SourceWidth:  a.SourceWidth,
		SourceHeight: a.SourceHeight,
		Timestamp:    time.UnixMilli(a.Timestamp),
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := s.Validate(); err != nil {
		return Stroke{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	return s, nil
}

// geometry returns the stroke points from Points or Path.
func (a Action) geometry() ([]Point, error) {
	switch {
	case len(a.Points) > 0 && a.Path != "":
		return nil, fmt.Errorf("%w: both points and path set", ErrInvalidAction)
	case len(a.Points) > 0:
		return clonePoints(a.Points), nil
	case a.Path != "":
		p, err := ParsePath(a.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		subpaths := p.Subpaths()
		if len(subpaths) != 1 {
			return nil, fmt.Errorf("%w: stroke path has %d subpaths", ErrInvalidAction, len(subpaths))
		}
		return subpaths[0], nil
	default:
		return nil, fmt.Errorf("%w: stroke has no geometry", ErrInvalidAction)
	}
}

// FillToAction converts a fill request applied on a width x height surface
// into an action record.
func FillToAction(req FillRequest, width, height int) Action {
	seed := req.Seed
	tol := req.Tolerance
	return Action{
		ID:           uuid.NewString(),
		Type:         ActionFill,
		Seed:         &seed,
		Color:        req.Color.String(),
		Tolerance:    &tol,
		Timestamp:    time.Now().UnixMilli(),
		SourceWidth:  width,
		SourceHeight: height,
	}
}

// ActionToFill converts a fill action back into a fill request. A missing
// tolerance means DefaultFillTolerance.
func ActionToFill(a Action) (FillRequest, error) {
	if a.Type != ActionFill {
		return FillRequest{}, fmt.Errorf("%w: %q is not a fill", ErrInvalidAction, a.Type)
	}
	if a.Seed == nil {
		return FillRequest{}, fmt.Errorf("%w: fill has no seed", ErrInvalidAction)
	}
	c, err := ParseHex(a.Color)
	if err != nil {
		return FillRequest{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	req := FillRequest{Seed: *a.Seed, Color: c, Tolerance: DefaultFillTolerance}
	if a.Tolerance != nil {
		req.Tolerance = *a.Tolerance
	}
	return req, nil
}

// ClearAction returns a "start over" record for a width x height surface.
func ClearAction(width, height int) Action {
	return Action{
		ID:           uuid.NewString(),
		Type:         ActionClear,
		Timestamp:    time.Now().UnixMilli(),
		SourceWidth:  width,
		SourceHeight: height,
	}
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

//go:embed action_schema.json
var actionSchemaJSON []byte

var actionSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(actionSchemaJSON))
})

// ValidateActions checks an encoded action list against the action record
// schema. All schema violations are reported, joined, under
// ErrInvalidAction.
func ValidateActions(data []byte) error {
	schema, err := actionSchema()
	if err != nil {
		return fmt.Errorf("colorbook: action schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]error, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, errors.New(e.String()))
	}
	return fmt.Errorf("%w: %w", ErrInvalidAction, errors.Join(errs...))
}

// EncodeActions encodes actions as a JSON array.
func EncodeActions(actions []Action) ([]byte, error) {
	if actions == nil {
		actions = []Action{}
	}
	return json.Marshal(actions)
}

// DecodeActions validates data against the action record schema and
// decodes it.
func DecodeActions(data []byte) ([]Action, error) {
	if err := ValidateActions(data); err != nil {
		return nil, err
	}
	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	return actions, nil
}

// ReplayPolicy decides what happens to actions recorded on a canvas of a
// different size than the live surface.
type ReplayPolicy uint8

const (
	// ReplayStrict rejects mismatched actions with ErrSurfaceSizeMismatch.
	// Use it in development builds so integration bugs fail loudly.
	ReplayStrict ReplayPolicy = iota

	// ReplayLenient clamps mismatched geometry into the surface and logs a
	// warning.
	ReplayLenient
)

// String returns the policy name.
func (p ReplayPolicy) String() string {
	switch p {
	case ReplayStrict:
		return "strict"
	case ReplayLenient:
		return "lenient"
	default:
		return fmt.Sprintf("ReplayPolicy(%d)", p)
	}
}

// ParseReplayPolicy parses "strict" or "lenient".
func ParseReplayPolicy(s string) (ReplayPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return ReplayStrict, nil
	case "lenient":
		return ReplayLenient, nil
	}
	return ReplayStrict, fmt.Errorf("colorbook: unknown replay policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p ReplayPolicy) MarshalText() ([]byte, error) {
	if p > ReplayLenient {
		return nil, fmt.Errorf("colorbook: invalid replay policy %d", p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ReplayPolicy) UnmarshalText(text []byte) error {
	v, err := ParseReplayPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// CheckSurfaceSize prepares a for replay on a width x height surface.
//
// Actions recorded on the same size, or with unknown source size, are
// returned unchanged. Otherwise ReplayStrict returns ErrSurfaceSizeMismatch
// and ReplayLenient returns a copy with every coordinate clamped into the
// surface and the source size set to the surface size. The core never
// rescales silently; use RescaleAction for that.
func CheckSurfaceSize(a Action, width, height int, policy ReplayPolicy) (Action, error) {
	if a.SourceWidth <= 0 || a.SourceHeight <= 0 ||
		(a.SourceWidth == width && a.SourceHeight == height) {
		return a, nil
	}
	if policy != ReplayLenient {
		return a, fmt.Errorf("%w: action %s recorded on %dx%d, surface is %dx%d",
			ErrSurfaceSizeMismatch, a.ID, a.SourceWidth, a.SourceHeight, width, height)
	}

	Logger().Warn("replay size mismatch, clamping",
		"action", a.ID, "type", string(a.Type),
		"source", fmt.Sprintf("%dx%d", a.SourceWidth, a.SourceHeight),
		"surface", fmt.Sprintf("%dx%d", width, height))

	maxX, maxY := float64(width-1), float64(height-1)
	clampPt := func(p Point) Point {
		return Pt(math.Max(0, math.Min(maxX, p.X)), math.Max(0, math.Min(maxY, p.Y)))
	}
	out, err := mapGeometry(a, clampPt)
	if err != nil {
		return a, err
	}
	out.SourceWidth, out.SourceHeight = width, height
	return out, nil
}

// RescaleAction maps a from its source canvas onto a width x height canvas,
// scaling coordinates per axis and stroke width by the geometric mean of the
// two scale factors. Actions with unknown source size are returned as a
// copy.
func RescaleAction(a Action, width, height int) (Action, error) {
	if a.SourceWidth <= 0 || a.SourceHeight <= 0 {
		return a.Clone(), nil
	}
	sx := float64(width) / float64(a.SourceWidth)
	sy := float64(height) / float64(a.SourceHeight)
	m := Scale(sx, sy)
	out, err := mapGeometry(a, m.TransformPoint)
	if err != nil {
		return a, err
	}
	out.StrokeWidth = a.StrokeWidth * math.Sqrt(sx*sy)
	out.SourceWidth, out.SourceHeight = width, height
	return out, nil
}

// mapGeometry returns a deep copy of a with f applied to every coordinate.
func mapGeometry(a Action, f func(Point) Point) (Action, error) {
	out := a.Clone()
	for i, p := range out.Points {
		out.Points[i] = f(p)
	}
	if out.Seed != nil {
		*out.Seed = f(*out.Seed)
	}
	if out.Path != "" {
		p, err := ParsePath(out.Path)
		if err != nil {
			return a, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		mapped := NewPath()
		for _, sub := range p.Subpaths() {
			pts := make([]Point, len(sub))
			for i, q := range sub {
				pts[i] = f(q)
			}
			mapped.AddPolyline(pts)
		}
		out.Path = mapped.String()
	}
	return out, nil
}
