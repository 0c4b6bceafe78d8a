package geom

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	pathTokenRe = regexp.MustCompile(`[MmLlHhVvCcSsQqTtAaZz]|[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
	numberRe    = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// Path is the geometry read from an SVG path "d" attribute.
type Path struct {
	// Points are the on-curve points in drawing order: every segment end.
	Points []Point
	// Extent holds Points plus the turning points of every curve, so its
	// box matches the tight box a browser reports. Arcs contribute their
	// end points only.
	Extent []Point
}

// Start returns the first point of the path.
func (p Path) Start() (Point, bool) {
	if len(p.Points) == 0 {
		return Point{}, false
	}
	return p.Points[0], true
}

// End returns the last on-curve point of the path.
func (p Path) End() (Point, bool) {
	if len(p.Points) == 0 {
		return Point{}, false
	}
	return p.Points[len(p.Points)-1], true
}

// Bounds returns the box around the extent.
func (p Path) Bounds() (Box, bool) {
	var acc bounds
	for _, pt := range p.Extent {
		acc.addPoint(pt)
	}
	return acc.box, acc.isSet
}

// argCount is the number of numeric arguments each command consumes.
var argCount = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7, 'Z': 0,
}

// ParsePath reads absolute and relative path commands. Malformed trailing
// data is ignored; what was read up to that point is returned.
func ParsePath(d string) Path {
	var (
		out        Path
		cur, start Point
		cmd, prev  byte
		ctrl       Point // last control point, for S and T reflection
		relative   bool
		nums       []float64
		tokens     = pathTokenRe.FindAllString(d, -1)
	)

	emit := func(on Point, turns ...Point) {
		out.Extent = append(out.Extent, turns...)
		out.Extent = append(out.Extent, on)
		out.Points = append(out.Points, on)
		cur = on
	}
	abs := func(x, y float64) Point {
		if relative {
			return Point{X: cur.X + x, Y: cur.Y + y}
		}
		return Point{X: x, Y: y}
	}

	reflected := func(after ...byte) Point {
		for _, c := range after {
			if prev == c {
				return Point{X: 2*cur.X - ctrl.X, Y: 2*cur.Y - ctrl.Y}
			}
		}
		return cur
	}

	run := func() {
		n := argCount[cmd]
		if cmd == 'Z' {
			emit(start)
			prev = 'Z'
			return
		}
		for len(nums) >= n {
			a := nums[:n]
			nums = nums[n:]
			switch cmd {
			case 'M':
				p := abs(a[0], a[1])
				emit(p)
				start = p
				// Extra coordinate pairs after a moveto are implicit linetos.
				cmd = 'L'
				n = argCount[cmd]
			case 'L':
				emit(abs(a[0], a[1]))
			case 'H':
				x := a[0]
				if relative {
					x += cur.X
				}
				emit(Point{X: x, Y: cur.Y})
			case 'V':
				y := a[0]
				if relative {
					y += cur.Y
				}
				emit(Point{X: cur.X, Y: y})
			case 'C':
				c1, c2, p := abs(a[0], a[1]), abs(a[2], a[3]), abs(a[4], a[5])
				emit(p, cubicExtrema(cur, c1, c2, p)...)
				ctrl = c2
			case 'S':
				c1, c2, p := reflected('C', 'S'), abs(a[0], a[1]), abs(a[2], a[3])
				emit(p, cubicExtrema(cur, c1, c2, p)...)
				ctrl = c2
			case 'Q':
				c, p := abs(a[0], a[1]), abs(a[2], a[3])
				emit(p, quadExtrema(cur, c, p)...)
				ctrl = c
			case 'T':
				c, p := reflected('Q', 'T'), abs(a[0], a[1])
				emit(p, quadExtrema(cur, c, p)...)
				ctrl = c
			case 'A':
				emit(abs(a[5], a[6]))
			}
			prev = cmd
		}
	}

	for _, tok := range tokens {
		c := tok[0]
		if isCommand(c) {
			if cmd != 0 {
				run()
			}
			nums = nums[:0]
			relative = c >= 'a' && c <= 'z'
			cmd = strings.ToUpper(tok)[0]
			if cmd == 'Z' {
				run()
				cmd = 0
			}
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			break
		}
		nums = append(nums, v)
	}
	if cmd != 0 {
		run()
	}
	return out
}

// cubicExtrema returns the points where the cubic p0..p3 turns in x or y.
func cubicExtrema(p0, p1, p2, p3 Point) []Point {
	var out []Point
	ts := append(cubicTurns(p0.X, p1.X, p2.X, p3.X), cubicTurns(p0.Y, p1.Y, p2.Y, p3.Y)...)
	for _, t := range ts {
		mt := 1 - t
		a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
		out = append(out, Point{
			X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
			Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
		})
	}
	return out
}

// cubicTurns solves the derivative of one cubic coordinate for t in (0, 1).
func cubicTurns(v0, v1, v2, v3 float64) []float64 {
	a, b, c := v1-v0, v2-v1, v3-v2
	qa, qb, qc := a-2*b+c, 2*(b-a), a

	var roots []float64
	switch {
	case math.Abs(qa) < 1e-12:
		if qb != 0 {
			roots = append(roots, -qc/qb)
		}
	default:
		if disc := qb*qb - 4*qa*qc; disc >= 0 {
			sq := math.Sqrt(disc)
			roots = append(roots, (-qb+sq)/(2*qa), (-qb-sq)/(2*qa))
		}
	}

	var inside []float64
	for _, t := range roots {
		if t > 0 && t < 1 {
			inside = append(inside, t)
		}
	}
	return inside
}

// quadExtrema returns the points where the quadratic p0..p2 turns in x or y.
func quadExtrema(p0, p1, p2 Point) []Point {
	var out []Point
	for _, t := range []float64{quadTurn(p0.X, p1.X, p2.X), quadTurn(p0.Y, p1.Y, p2.Y)} {
		if t <= 0 || t >= 1 {
			continue
		}
		mt := 1 - t
		out = append(out, Point{
			X: mt*mt*p0.X + 2*mt*t*p1.X + t*t*p2.X,
			Y: mt*mt*p0.Y + 2*mt*t*p1.Y + t*t*p2.Y,
		})
	}
	return out
}

func quadTurn(v0, v1, v2 float64) float64 {
	den := v0 - 2*v1 + v2
	if den == 0 {
		return -1
	}
	return (v0 - v1) / den
}

func isCommand(c byte) bool {
	switch c {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

// parseNumbers extracts every number in s.
func parseNumbers(s string) []float64 {
	var out []float64
	for _, tok := range numberRe.FindAllString(s, -1) {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// ParseFloat parses an SVG length, tolerating surrounding space and a
// trailing "px".
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
