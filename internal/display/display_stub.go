//go:build !windows

package display

func scaleFactor() (float64, error) {
	return 0, ErrUnsupported
}

// EnableDPIAwareness is a no-op on this platform
func EnableDPIAwareness() {}
