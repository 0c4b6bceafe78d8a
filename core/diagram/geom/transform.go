package geom

import (
	"math"
	"regexp"
	"strings"
)

// Matrix is the SVG affine transform
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity is the no-op transform.
var Identity = Matrix{A: 1, D: 1}

// Multiply returns m·n, i.e. n applied first, then m.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply maps p through the transform.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// ApplyBox maps the four corners of b and returns their bounding box.
func (m Matrix) ApplyBox(b Box) Box {
	var acc bounds
	for _, p := range []Point{
		{b.Left, b.Top}, {b.Right, b.Top}, {b.Left, b.Bottom}, {b.Right, b.Bottom},
	} {
		acc.addPoint(m.Apply(p))
	}
	return acc.box
}

var transformFuncRe = regexp.MustCompile(`([a-zA-Z]+)\s*\(([^)]*)\)`)

// ParseTransform parses an SVG transform list. Unknown or malformed
// functions are ignored.
func ParseTransform(attr string) Matrix {
	m := Identity
	for _, fn := range transformFuncRe.FindAllStringSubmatch(attr, -1) {
		args := parseNumbers(fn[2])
		var t Matrix
		switch strings.ToLower(fn[1]) {
		case "translate":
			if len(args) == 0 {
				continue
			}
			t = Matrix{A: 1, D: 1, E: args[0]}
			if len(args) > 1 {
				t.F = args[1]
			}
		case "scale":
			if len(args) == 0 {
				continue
			}
			sy := args[0]
			if len(args) > 1 {
				sy = args[1]
			}
			t = Matrix{A: args[0], D: sy}
		case "rotate":
			if len(args) == 0 {
				continue
			}
			rad := args[0] * math.Pi / 180
			cos, sin := math.Cos(rad), math.Sin(rad)
			t = Matrix{A: cos, B: sin, C: -sin, D: cos}
			if len(args) == 3 {
				cx, cy := args[1], args[2]
				t = Matrix{A: 1, D: 1, E: cx, F: cy}.
					Multiply(t).
					Multiply(Matrix{A: 1, D: 1, E: -cx, F: -cy})
			}
		case "skewx":
			if len(args) == 0 {
				continue
			}
			t = Matrix{A: 1, C: math.Tan(args[0] * math.Pi / 180), D: 1}
		case "skewy":
			if len(args) == 0 {
				continue
			}
			t = Matrix{A: 1, B: math.Tan(args[0] * math.Pi / 180), D: 1}
		case "matrix":
			if len(args) != 6 {
				continue
			}
			t = Matrix{A: args[0], B: args[1], C: args[2], D: args[3], E: args[4], F: args[5]}
		default:
			continue
		}
		m = m.Multiply(t)
	}
	return m
}
