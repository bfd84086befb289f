package gesture

import "math"

// arc returns n points evenly spaced on a circle from angle `from` to `to`
// (radians), excluding the end angle.
func arc(cx, cy, radius float64, n int, from, to float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		a := from + (to-from)*float64(i)/float64(n)
		pts[i] = Point{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)}
	}
	return pts
}

// circle starts slightly off axis so no sample sits on a sector boundary
func circle(cx, cy, radius float64, n int) []Point {
	return arc(cx, cy, radius, n, 0.1, 0.1+2*math.Pi)
}

func line(x0, y0, x1, y1 float64, n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		f := float64(i) / float64(n-1)
		pts[i] = Point{X: x0 + (x1-x0)*f, Y: y0 + (y1-y0)*f}
	}
	return pts
}
