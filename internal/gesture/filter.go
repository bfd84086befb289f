package gesture

// KeepSample reports whether p should be appended to a trajectory whose
// current samples are kept. The first sample is always kept; later ones only
// when they are at least step away from the last kept sample.
func KeepSample(kept []Point, p Point, step float64) bool {
	if len(kept) == 0 {
		return true
	}
	return kept[len(kept)-1].Dist(p) >= step
}

// Downsample applies the sample filter to a whole sequence
func Downsample(points []Point, step float64) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if KeepSample(out, p, step) {
			out = append(out, p)
		}
	}
	return out
}
