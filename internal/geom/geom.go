// Package geom has the diagram-space constants and the small amount of
// rectangle/segment math shared by layout and the interaction controller.
package geom

import "math"

const (
	NodeWidth  = 160.0
	NodeHeight = 60.0

	WeekWidth  = 70.0
	MonthWidth = 120.0

	HorizontalSpacing = 40.0
	VerticalSpacing   = 100.0

	Padding        = 20.0
	DiagramPadding = 50.0

	DefaultCanvasWidth  = 800.0
	DefaultCanvasHeight = 500.0

	// EdgeHitWidth is the stroke width of the invisible arrow hit line.
	EdgeHitWidth = 30.0
)

type Point struct {
	X float64
	Y float64
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

type Size struct {
	W float64
	H float64
}

// Rect is an axis-aligned box with its origin at the top-left.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// NodeRect is the box of a node whose top-left is at p.
func NodeRect(p Point) Rect {
	return Rect{X: p.X, Y: p.Y, W: NodeWidth, H: NodeHeight}
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains is inclusive on every side.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Overlaps is the half-open interval test used by box selection: touching
// edges do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X && r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// RectFromCorners normalizes two drag corners into a rect.
func RectFromCorners(a, b Point) Rect {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// boundaryPoint intersects the ray from the center of r at angle with r's
// boundary. The ray leaves through a vertical side when it is flatter than the
// rect's diagonal.
func boundaryPoint(r Rect, angle float64) Point {
	c := r.Center()
	halfW, halfH := r.W/2, r.H/2
	cos, sin := math.Cos(angle), math.Sin(angle)
	tan := math.Tan(angle)
	if math.Abs(cos) > math.Abs(sin)*(halfW/halfH) {
		dir := 1.0
		if cos < 0 {
			dir = -1
		}
		return Point{X: c.X + dir*halfW, Y: c.Y + dir*halfW*tan}
	}
	dir := 1.0
	if sin < 0 {
		dir = -1
	}
	x := c.X
	if tan != 0 {
		x = c.X + dir*halfH/tan
	}
	return Point{X: x, Y: c.Y + dir*halfH}
}

// EdgeSegment returns the arrow from the boundary of from toward the
// boundary of to, along the line joining the two centers.
func EdgeSegment(from, to Rect) (Point, Point) {
	fc, tc := from.Center(), to.Center()
	angle := math.Atan2(tc.Y-fc.Y, tc.X-fc.X)
	return boundaryPoint(from, angle), boundaryPoint(to, angle+math.Pi)
}

// DistanceToSegment is the shortest distance from p to segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / l2
	t = math.Max(0, math.Min(1, t))
	proj := a.Add(d.Scale(t))
	return math.Hypot(p.X-proj.X, p.Y-proj.Y)
}

// HitsSegment reports whether p falls on the wide hit line drawn over ab.
func HitsSegment(p, a, b Point) bool {
	return DistanceToSegment(p, a, b) <= EdgeHitWidth/2
}

// ContentSize is the scrollable surface needed for nodes at the given
// positions, never smaller than the default canvas.
func ContentSize(points []Point) Size {
	maxX, maxY := 0.0, 0.0
	for _, p := range points {
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Size{
		W: math.Max(DefaultCanvasWidth, maxX+NodeWidth+200),
		H: math.Max(DefaultCanvasHeight, maxY+NodeHeight+200),
	}
}
