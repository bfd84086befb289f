package gesture

import "math"

// Gate names the analyzer check that rejected a stroke
type Gate string

const (
	GatePointCount  Gate = "point_count"
	GateRadius      Gate = "min_radius"
	GateConsistency Gate = "radius_consistency"
	GateCoverage    Gate = "angular_coverage"
	GateClosure     Gate = "closure"
)

// Report carries the measurements taken while analyzing a stroke.
// Measurements after the rejecting gate are left zero.
type Report struct {
	Points         int     `json:"points"`
	CenterX        float64 `json:"center_x"`
	CenterY        float64 `json:"center_y"`
	AvgRadius      float64 `json:"avg_radius"`
	Deviation      float64 `json:"deviation"`
	SectorsCovered int     `json:"sectors_covered"`
	ClosureRatio   float64 `json:"closure_ratio"`
	Rejected       Gate    `json:"rejected,omitempty"`
}

// Recognized reports whether every gate passed
func (r Report) Recognized() bool {
	return r.Rejected == ""
}

// Circle returns the measured circle; only meaningful when Recognized
func (r Report) Circle() Circle {
	return Circle{CenterX: r.CenterX, CenterY: r.CenterY, Radius: r.AvgRadius}
}

// Analyze classifies a trajectory. The circle is in the same units as the
// input and is only returned when every gate passes.
func Analyze(points []Point, t Thresholds) (Circle, bool) {
	r := Inspect(points, t)
	if !r.Recognized() {
		return Circle{}, false
	}
	return r.Circle(), true
}

// Inspect runs the gates in order and stops at the first rejection.
// It has no side effects and is safe for concurrent use.
func Inspect(points []Point, t Thresholds) Report {
	n := len(points)
	r := Report{Points: n}

	if n == 0 || n < t.MinPoints {
		r.Rejected = GatePointCount
		return r
	}

	// Centroid
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	c := Point{X: sx / float64(n), Y: sy / float64(n)}
	r.CenterX, r.CenterY = c.X, c.Y

	radii := make([]float64, n)
	var sum float64
	for i, p := range points {
		radii[i] = p.Dist(c)
		sum += radii[i]
	}
	avg := sum / float64(n)
	r.AvgRadius = avg
	if avg < t.MinRadius || avg == 0 {
		r.Rejected = GateRadius
		return r
	}

	// Population standard deviation relative to the mean radius
	var sq float64
	for _, d := range radii {
		sq += (d - avg) * (d - avg)
	}
	r.Deviation = math.Sqrt(sq/float64(n)) / avg
	if r.Deviation > t.MaxRadiusDeviation {
		r.Rejected = GateConsistency
		return r
	}

	r.SectorsCovered = sectorsCovered(points, c, t.Sectors)
	if r.SectorsCovered < t.MinSectors {
		r.Rejected = GateCoverage
		return r
	}

	r.ClosureRatio = points[0].Dist(points[n-1]) / avg
	if r.ClosureRatio > t.MaxClosureRatio {
		r.Rejected = GateClosure
		return r
	}

	return r
}

// sectorsCovered counts the distinct angular bins, of count equal slices
// around c, that the trajectory touches
func sectorsCovered(points []Point, c Point, count int) int {
	if count < 1 {
		return 0
	}
	seen := make([]bool, count)
	covered := 0
	for _, p := range points {
		angle := math.Atan2(p.Y-c.Y, p.X-c.X)
		s := int((angle+math.Pi)/(2*math.Pi)*float64(count)) % count
		if !seen[s] {
			seen[s] = true
			covered++
		}
	}
	return covered
}
