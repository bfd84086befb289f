//go:build windows

package display

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

var (
	user32                            = windows.NewLazySystemDLL("user32.dll")
	procGetDpiForSystem               = user32.NewProc("GetDpiForSystem")
	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")
	procSetProcessDPIAware            = user32.NewProc("SetProcessDPIAware")
)

// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 is ((DPI_AWARENESS_CONTEXT)-4)
const DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 = ^uintptr(3)

func scaleFactor() (float64, error) {
	if err := procGetDpiForSystem.Find(); err != nil {
		return 0, fmt.Errorf("GetDpiForSystem unavailable: %w", err)
	}
	dpi, _, _ := procGetDpiForSystem.Call()
	if dpi == 0 {
		return 0, fmt.Errorf("GetDpiForSystem returned 0")
	}
	return float64(dpi) / BaseDPI, nil
}

// EnableDPIAwareness makes the process per-monitor DPI aware so that hook
// coordinates arrive in physical pixels. Must run before any window exists.
func EnableDPIAwareness() {
	log := logrus.WithField("component", "display")

	if procSetProcessDpiAwarenessContext.Find() == nil {
		ret, _, err := procSetProcessDpiAwarenessContext.Call(DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2)
		if ret != 0 {
			log.Debug("Per-monitor DPI awareness (v2) enabled")
			return
		}
		log.WithError(err).Debug("SetProcessDpiAwarenessContext failed, falling back")
	}

	if procSetProcessDPIAware.Find() == nil {
		if ret, _, err := procSetProcessDPIAware.Call(); ret == 0 {
			log.WithError(err).Warn("SetProcessDPIAware failed; hook coordinates may be scaled")
		}
	}
}
