// Package display answers DPI questions about the primary surface.
package display

import "errors"

// ErrUnsupported is returned where the platform has no DPI query
var ErrUnsupported = errors.New("display scale query not supported on this platform")

// BaseDPI is the DPI at which one logical pixel equals one physical pixel
const BaseDPI = 96

// System queries the operating system for the primary surface scale
type System struct{}

// ScaleFactor returns the DPI scale of the primary surface (1.0 = 96 DPI)
func (System) ScaleFactor() (float64, error) {
	return scaleFactor()
}
