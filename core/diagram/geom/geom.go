// Package geom provides the 2-D primitives used to read rendered SVG
// diagrams: points, axis-aligned boxes, affine transforms, path data and
// static bounding-box computation over an *html.Node tree.
package geom

import "math"

// Point is a position in SVG user space.
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Box is an axis-aligned bounding box.
type Box struct {
	Left, Top, Right, Bottom float64
}

// BoxFromRect builds a Box from an origin and a size.
func BoxFromRect(x, y, width, height float64) Box {
	return Box{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

// BoxAround builds a square Box of half-size r centred on c.
func BoxAround(c Point, r float64) Box {
	return Box{Left: c.X - r, Top: c.Y - r, Right: c.X + r, Bottom: c.Y + r}
}

// Width of the box.
func (b Box) Width() float64 { return b.Right - b.Left }

// Height of the box.
func (b Box) Height() float64 { return b.Bottom - b.Top }

// Area of the box.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// Empty reports whether the box has neither width nor height.
func (b Box) Empty() bool { return b.Width() <= 0 && b.Height() <= 0 }

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.Left + b.Right) / 2, Y: (b.Top + b.Bottom) / 2}
}

// Contains reports whether inner lies entirely within b (edges inclusive).
func (b Box) Contains(inner Box) bool {
	return inner.Left >= b.Left && inner.Right <= b.Right &&
		inner.Top >= b.Top && inner.Bottom <= b.Bottom
}

// Union returns the smallest box covering b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Left:   math.Min(b.Left, o.Left),
		Top:    math.Min(b.Top, o.Top),
		Right:  math.Max(b.Right, o.Right),
		Bottom: math.Max(b.Bottom, o.Bottom),
	}
}

// DistanceTo returns the distance from p to the nearest point of b,
// zero when p is inside.
func (b Box) DistanceTo(p Point) float64 {
	dx := math.Max(math.Max(b.Left-p.X, 0), p.X-b.Right)
	dy := math.Max(math.Max(b.Top-p.Y, 0), p.Y-b.Bottom)
	return math.Hypot(dx, dy)
}

// bounds accumulates points into a Box.
type bounds struct {
	box   Box
	isSet bool
}

func (b *bounds) addPoint(p Point) {
	if !b.isSet {
		b.box = Box{Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y}
		b.isSet = true
		return
	}
	b.box = b.box.Union(Box{Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y})
}

func (b *bounds) addBox(o Box) {
	b.addPoint(Point{X: o.Left, Y: o.Top})
	b.addPoint(Point{X: o.Right, Y: o.Bottom})
}
