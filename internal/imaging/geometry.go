// geometry.go: card quadrilateral detection from raw frames
package imaging

import (
	"image"
	"math"
	"sort"
)

// Point is a 2D point in source-image pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Quad is a consistently ordered card quadrilateral.
type Quad struct {
	TopLeft     Point
	TopRight    Point
	BottomRight Point
	BottomLeft  Point
}

// cardAspect is the known physical card aspect ratio (width : height).
const cardAspect = 500.0 / 700.0

// aspectTolerance is the allowed relative deviation from cardAspect.
const aspectTolerance = 0.30

// area limits for a candidate quad, as fractions of the frame area.
const (
	minAreaFraction = 0.15
	maxAreaFraction = 0.95
)

// orderQuad orders four points canonically: top-left and bottom-right by
// coordinate sum, top-right and bottom-left by coordinate difference.
func orderQuad(pts [4]Point) Quad {
	sum := func(p Point) float64 { return p.X + p.Y }
	diff := func(p Point) float64 { return p.X - p.Y }

	tl, br := pts[0], pts[0]
	for _, p := range pts[1:] {
		if sum(p) < sum(tl) {
			tl = p
		}
		if sum(p) > sum(br) {
			br = p
		}
	}
	tr, bl := pts[0], pts[0]
	for _, p := range pts[1:] {
		if diff(p) > diff(tr) {
			tr = p
		}
		if diff(p) < diff(bl) {
			bl = p
		}
	}
	return Quad{TopLeft: tl, TopRight: tr, BottomRight: br, BottomLeft: bl}
}

// width returns the mean of the top and bottom edge lengths.
func (q Quad) width() float64 {
	return (dist(q.TopLeft, q.TopRight) + dist(q.BottomLeft, q.BottomRight)) / 2
}

// height returns the mean of the left and right edge lengths.
func (q Quad) height() float64 {
	return (dist(q.TopLeft, q.BottomLeft) + dist(q.TopRight, q.BottomRight)) / 2
}

// area computes the quad area with the shoelace formula.
func (q Quad) area() float64 {
	pts := []Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
	var s float64
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(s) / 2
}

// inset moves each corner toward the quad centroid by the given fraction,
// discarding sleeve and border artifacts before the warp.
func (q Quad) inset(fraction float64) Quad {
	cx := (q.TopLeft.X + q.TopRight.X + q.BottomRight.X + q.BottomLeft.X) / 4
	cy := (q.TopLeft.Y + q.TopRight.Y + q.BottomRight.Y + q.BottomLeft.Y) / 4
	move := func(p Point) Point {
		return Point{
			X: p.X + (cx-p.X)*fraction,
			Y: p.Y + (cy-p.Y)*fraction,
		}
	}
	return Quad{
		TopLeft:     move(q.TopLeft),
		TopRight:    move(q.TopRight),
		BottomRight: move(q.BottomRight),
		BottomLeft:  move(q.BottomLeft),
	}
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// detectQuad finds the most card-like quadrilateral in a frame. It returns
// nil with zero confidence when no acceptable quad exists; the caller falls
// back to a center crop.
func detectQuad(img *image.RGBA) (*Quad, float64) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w < 32 || h < 32 {
		return nil, 0
	}

	gray := grayPlane(img)
	blurred := boxBlur3(gray, w, h)
	edges := sobelMagnitude(blurred, w, h)
	mask := thresholdEdges(edges)

	frameArea := float64(w * h)
	var best *Quad
	var bestArea float64

	for _, component := range connectedComponents(mask, w, h) {
		if len(component) < (w+h)/2 {
			// too few edge pixels to outline a card
			continue
		}
		hull := convexHull(component)
		if len(hull) < 4 {
			continue
		}
		approx := approxPolygon(hull, 0.02*perimeter(hull))
		if len(approx) != 4 {
			continue
		}

		quad := orderQuad([4]Point{approx[0], approx[1], approx[2], approx[3]})
		area := quad.area()
		if area < minAreaFraction*frameArea || area > maxAreaFraction*frameArea {
			continue
		}
		qh := quad.height()
		if qh <= 0 {
			continue
		}
		aspect := quad.width() / qh
		if math.Abs(aspect-cardAspect) > aspectTolerance*cardAspect {
			continue
		}

		if area > bestArea {
			q := quad
			best = &q
			bestArea = area
		}
	}

	if best == nil {
		return nil, 0
	}

	// Larger, more frame-filling quads are detected with higher certainty.
	confidence := 0.5 + 0.5*math.Min(1, bestArea/(0.5*frameArea))
	return best, confidence
}

// boxBlur3 applies a 3x3 box blur, clamping at the borders.
func boxBlur3(plane []float64, w, h int) []float64 {
	out := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			var n float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					sum += plane[ny*w+nx]
					n++
				}
			}
			out[y*w+x] = sum / n
		}
	}
	return out
}

// sobelMagnitude computes the gradient magnitude with 3x3 Sobel kernels.
// Border pixels are left at zero.
func sobelMagnitude(plane []float64, w, h int) []float64 {
	out := make([]float64, len(plane))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			p := func(dx, dy int) float64 { return plane[(y+dy)*w+(x+dx)] }
			gx := -p(-1, -1) - 2*p(-1, 0) - p(-1, 1) + p(1, -1) + 2*p(1, 0) + p(1, 1)
			gy := -p(-1, -1) - 2*p(0, -1) - p(1, -1) + p(-1, 1) + 2*p(0, 1) + p(1, 1)
			out[y*w+x] = math.Hypot(gx, gy)
		}
	}
	return out
}

// thresholdEdges converts an edge magnitude plane into a binary mask using
// mean plus one standard deviation as the cut.
func thresholdEdges(edges []float64) []bool {
	var mean float64
	for _, v := range edges {
		mean += v
	}
	mean /= float64(len(edges))

	var variance float64
	for _, v := range edges {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(edges))
	cut := mean + math.Sqrt(variance)

	mask := make([]bool, len(edges))
	for i, v := range edges {
		mask[i] = v > cut
	}
	return mask
}

// connectedComponents groups edge pixels with 8-connectivity. Components are
// returned in deterministic scan order.
func connectedComponents(mask []bool, w, h int) [][]Point {
	visited := make([]bool, len(mask))
	var components [][]Point

	var stack []int
	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		var component []Point
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w
			component = append(component, Point{X: float64(x), Y: float64(y)})
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if mask[nidx] && !visited[nidx] {
						visited[nidx] = true
						stack = append(stack, nidx)
					}
				}
			}
		}
		components = append(components, component)
	}
	return components
}

// convexHull computes the convex hull of a point set with Andrew's monotone
// chain, returned in counter-clockwise order.
func convexHull(points []Point) []Point {
	if len(points) < 3 {
		return points
	}
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var hull []Point
	// lower hull
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// upper hull
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// perimeter returns the closed polygon perimeter.
func perimeter(poly []Point) float64 {
	var p float64
	for i := range poly {
		p += dist(poly[i], poly[(i+1)%len(poly)])
	}
	return p
}

// approxPolygon simplifies a closed polygon with the Douglas-Peucker
// algorithm and the given distance tolerance.
func approxPolygon(poly []Point, epsilon float64) []Point {
	if len(poly) < 3 {
		return poly
	}

	// Split the closed polygon at the two most distant points and simplify
	// both open chains.
	maxI, maxJ := 0, 0
	var maxD float64
	for i := 0; i < len(poly); i++ {
		for j := i + 1; j < len(poly); j++ {
			if d := dist(poly[i], poly[j]); d > maxD {
				maxD = d
				maxI, maxJ = i, j
			}
		}
	}

	chainA := append([]Point{}, poly[maxI:maxJ+1]...)
	chainB := append([]Point{}, poly[maxJ:]...)
	chainB = append(chainB, poly[:maxI+1]...)

	simplifiedA := douglasPeucker(chainA, epsilon)
	simplifiedB := douglasPeucker(chainB, epsilon)

	// Merge, dropping the duplicated split points.
	result := append([]Point{}, simplifiedA...)
	if len(simplifiedB) > 2 {
		result = append(result, simplifiedB[1:len(simplifiedB)-1]...)
	}
	return result
}

func douglasPeucker(chain []Point, epsilon float64) []Point {
	if len(chain) < 3 {
		return chain
	}
	first, last := chain[0], chain[len(chain)-1]
	var maxD float64
	index := 0
	for i := 1; i < len(chain)-1; i++ {
		if d := pointLineDistance(chain[i], first, last); d > maxD {
			maxD = d
			index = i
		}
	}
	if maxD <= epsilon {
		return []Point{first, last}
	}
	left := douglasPeucker(chain[:index+1], epsilon)
	right := douglasPeucker(chain[index:], epsilon)
	return append(left[:len(left)-1], right...)
}

func pointLineDistance(p, a, b Point) float64 {
	l := dist(a, b)
	if l == 0 {
		return dist(p, a)
	}
	return math.Abs((b.X-a.X)*(a.Y-p.Y)-(a.X-p.X)*(b.Y-a.Y)) / l
}
