// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"fmt"
	"strconv"
	"strings"
)

// PathElement represents a single element in a path.
type PathElement interface {
	isPathElement()
}

// MoveTo starts a new subpath.
type MoveTo struct {
	Point Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a line to a point.
type LineTo struct {
	Point Point
}

func (LineTo) isPathElement() {}

// Close closes the current subpath.
type Close struct{}

func (Close) isPathElement() {}

// Path is a polyline path made of one or more subpaths. It is the combined
// representation of a stroke batch and the path-string form of an action
// record.
type Path struct {
	elements []PathElement
	start    Point // Starting point of current subpath
	current  Point // Current point
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{
		elements: make([]PathElement, 0, 16),
	}
}

// MoveTo moves to a point without drawing.
func (p *Path) MoveTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
}

// LineTo draws a line to a point.
func (p *Path) LineTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, LineTo{Point: pt})
	p.current = pt
}

// Close closes the current subpath by drawing a line to the start point.
func (p *Path) Close() {
	p.elements = append(p.elements, Close{})
	p.current = p.start
}

// AddPolyline appends pts as a new subpath. Empty input is ignored.
func (p *Path) AddPolyline(pts []Point) {
	if len(pts) == 0 {
		return
	}
	p.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.LineTo(pt.X, pt.Y)
	}
}

// Elements returns the path elements.
func (p *Path) Elements() []PathElement {
	return p.elements
}

// IsEmpty reports whether the path has no elements.
func (p *Path) IsEmpty() bool {
	return len(p.elements) == 0
}

// Subpaths returns the path as a list of polylines. A closed subpath ends
// with a copy of its first point; a lone MoveTo yields a one-point subpath.
func (p *Path) Subpaths() [][]Point {
	var out [][]Point
	var cur []Point
	var start Point
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = []Point{e.Point}
			start = e.Point
		case LineTo:
			if cur == nil {
				cur = []Point{start}
			}
			cur = append(cur, e.Point)
		case Close:
			if len(cur) > 0 {
				out = append(out, append(cur, cur[0]))
				cur = nil
			}
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// NumPoints returns the total number of MoveTo and LineTo points.
func (p *Path) NumPoints() int {
	n := 0
	for _, elem := range p.elements {
		if _, ok := elem.(Close); !ok {
			n++
		}
	}
	return n
}

// Transform applies a transformation matrix to all points in the path.
func (p *Path) Transform(m Matrix) *Path {
	result := NewPath()
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			pt := m.TransformPoint(e.Point)
			result.MoveTo(pt.X, pt.Y)
		case LineTo:
			pt := m.TransformPoint(e.Point)
			result.LineTo(pt.X, pt.Y)
		case Close:
			result.Close()
		}
	}
	return result
}

// Clone creates a deep copy of the path.
func (p *Path) Clone() *Path {
	elements := make([]PathElement, len(p.elements))
	copy(elements, p.elements)
	return &Path{
		elements: elements,
		start:    p.start,
		current:  p.current,
	}
}

// String encodes the path as an SVG-style path string using absolute M, L
// and Z commands, e.g. "M10 20L30 40".
func (p *Path) String() string {
	var b strings.Builder
	b.Grow(len(p.elements) * 12)
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			b.WriteByte('M')
			writePoint(&b, e.Point)
		case LineTo:
			b.WriteByte('L')
			writePoint(&b, e.Point)
		case Close:
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func writePoint(b *strings.Builder, pt Point) {
	b.WriteString(strconv.FormatFloat(pt.X, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(pt.Y, 'f', -1, 64))
}

// ParsePath parses an SVG-style path string restricted to straight
// segments: M, L, H, V, Z and their relative lowercase forms. Coordinates
// may be separated by whitespace or commas; repeated coordinate pairs after
// M or L continue the previous command.
func ParsePath(s string) (*Path, error) {
	p := NewPath()
	sc := pathScanner{s: s}
	var cmd byte
	started := false

	for {
		sc.skipSeparators()
		if sc.done() {
			break
		}
		if c := sc.peek(); isPathCommand(c) {
			cmd = c
			sc.pos++
		} else if cmd == 0 {
			return nil, fmt.Errorf("colorbook: path %q: expected command at offset %d", s, sc.pos)
		}

		rel := cmd >= 'a' && cmd <= 'z'
		base := p.current
		if !started {
			base = Point{}
		}

		switch cmd {
		case 'M', 'm':
			pt, err := sc.point()
			if err != nil {
				return nil, fmt.Errorf("colorbook: path %q: %w", s, err)
			}
			if rel {
				pt = pt.Add(base)
			}
			p.MoveTo(pt.X, pt.Y)
			started = true
			// Subsequent pairs are implicit LineTo commands.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'l':
			if !started {
				return nil, fmt.Errorf("colorbook: path %q: line before move", s)
			}
			pt, err := sc.point()
			if err != nil {
				return nil, fmt.Errorf("colorbook: path %q: %w", s, err)
			}
			if rel {
				pt = pt.Add(base)
			}
			p.LineTo(pt.X, pt.Y)
		case 'H', 'h', 'V', 'v':
			if !started {
				return nil, fmt.Errorf("colorbook: path %q: line before move", s)
			}
			v, err := sc.number()
			if err != nil {
				return nil, fmt.Errorf("colorbook: path %q: %w", s, err)
			}
			pt := base
			switch cmd {
			case 'H':
				pt.X = v
			case 'h':
				pt.X += v
			case 'V':
				pt.Y = v
			case 'v':
				pt.Y += v
			}
			p.LineTo(pt.X, pt.Y)
		case 'Z', 'z':
			if !started {
				return nil, fmt.Errorf("colorbook: path %q: close before move", s)
			}
			p.Close()
			cmd = 0
		default:
			return nil, fmt.Errorf("colorbook: path %q: unsupported command %q", s, cmd)
		}
	}
	return p, nil
}

func isPathCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvZzCcSsQqTtAa", c) >= 0
}

// pathScanner tokenizes path-string numbers.
type pathScanner struct {
	s   string
	pos int
}

func (sc *pathScanner) done() bool { return sc.pos >= len(sc.s) }
func (sc *pathScanner) peek() byte { return sc.s[sc.pos] }

func (sc *pathScanner) skipSeparators() {
	for !sc.done() {
		switch sc.peek() {
		case ' ', '\t', '\n', '\r', ',':
			sc.pos++
		default:
			return
		}
	}
}

func (sc *pathScanner) number() (float64, error) {
	sc.skipSeparators()
	start := sc.pos
	if !sc.done() && (sc.peek() == '-' || sc.peek() == '+') {
		sc.pos++
	}
	seenDot, seenExp := false, false
scan:
	for !sc.done() {
		c := sc.peek()
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && !seenExp && sc.pos > start:
			seenExp = true
			if sc.pos+1 < len(sc.s) && (sc.s[sc.pos+1] == '-' || sc.s[sc.pos+1] == '+') {
				sc.pos++
			}
		default:
			break scan
		}
		sc.pos++
	}
	if start == sc.pos {
		return 0, fmt.Errorf("expected number at offset %d", start)
	}
	v, err := strconv.ParseFloat(sc.s[start:sc.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", sc.s[start:sc.pos], err)
	}
	return v, nil
}

func (sc *pathScanner) point() (Point, error) {
	x, err := sc.number()
	if err != nil {
		return Point{}, err
	}
	y, err := sc.number()
	if err != nil {
		return Point{}, err
	}
	return Pt(x, y), nil
}
