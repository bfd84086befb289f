// Package gesture buffers pointer strokes and classifies them as circles.
package gesture

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidThresholds is returned by Thresholds.Validate
var ErrInvalidThresholds = errors.New("invalid gesture thresholds")

// Point is a trajectory sample in physical pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Circle is a recognized circle gesture
type Circle struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Radius  float64 `json:"radius"`
}

// Thresholds tune the sample filter and the analyzer gates
type Thresholds struct {
	// MinPoints is the fewest kept samples a stroke may have
	MinPoints int `json:"min_points"`

	// MinRadius is the smallest average radius in physical pixels
	MinRadius float64 `json:"min_radius"`

	// MaxRadiusDeviation bounds stddev(radius) / avg(radius)
	MaxRadiusDeviation float64 `json:"max_radius_deviation"`

	// Sectors is the number of equal angular bins around the centroid
	Sectors int `json:"sectors"`

	// MinSectors is how many bins the stroke must touch
	MinSectors int `json:"min_sectors"`

	// MaxClosureRatio bounds |first - last| / avg(radius)
	MaxClosureRatio float64 `json:"max_closure_ratio"`

	// SampleDistance is the downsample step in physical pixels
	SampleDistance float64 `json:"sample_distance"`
}

// DefaultThresholds returns the canonical tuning
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPoints:          12,
		MinRadius:          30,
		MaxRadiusDeviation: 0.55,
		Sectors:            12,
		MinSectors:         9,
		MaxClosureRatio:    0.8,
		SampleDistance:     5,
	}
}

// Validate checks the thresholds are usable
func (t Thresholds) Validate() error {
	switch {
	case t.MinPoints < 1:
		return fmt.Errorf("%w: min_points must be positive, got %d", ErrInvalidThresholds, t.MinPoints)
	case t.MinRadius < 0 || math.IsNaN(t.MinRadius):
		return fmt.Errorf("%w: min_radius must not be negative, got %v", ErrInvalidThresholds, t.MinRadius)
	case t.MaxRadiusDeviation < 0 || math.IsNaN(t.MaxRadiusDeviation):
		return fmt.Errorf("%w: max_radius_deviation must not be negative, got %v", ErrInvalidThresholds, t.MaxRadiusDeviation)
	case t.Sectors < 1:
		return fmt.Errorf("%w: sectors must be positive, got %d", ErrInvalidThresholds, t.Sectors)
	case t.MinSectors < 0 || t.MinSectors > t.Sectors:
		return fmt.Errorf("%w: min_sectors must be within [0, %d], got %d", ErrInvalidThresholds, t.Sectors, t.MinSectors)
	case t.MaxClosureRatio < 0 || math.IsNaN(t.MaxClosureRatio):
		return fmt.Errorf("%w: max_closure_ratio must not be negative, got %v", ErrInvalidThresholds, t.MaxClosureRatio)
	case t.SampleDistance < 0 || math.IsNaN(t.SampleDistance):
		return fmt.Errorf("%w: sample_distance must not be negative, got %v", ErrInvalidThresholds, t.SampleDistance)
	}
	return nil
}
