// Package autostart registers the service to start on login.
package autostart

import (
	"errors"
	"fmt"
	"os"

	"howett.net/plist"
)

// Label identifies the login item on every platform
const Label = "gesturehook"

// ErrUnsupported is returned on platforms without a known login mechanism
var ErrUnsupported = errors.New("auto-start not supported on this platform")

// Enable enables auto-start on login
func Enable() error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return enable(execPath)
}

// Disable disables auto-start on login
func Disable() error {
	return disable()
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	return isEnabled()
}

// Set enables or disables auto-start
func Set(enabled bool) error {
	if enabled {
		return Enable()
	}
	return Disable()
}

type launchAgent struct {
	Label            string   `plist:"Label"`
	ProgramArguments []string `plist:"ProgramArguments"`
	RunAtLoad        bool     `plist:"RunAtLoad"`
	KeepAlive        bool     `plist:"KeepAlive"`
}

// launchAgentPlist renders the macOS LaunchAgent for execPath
func launchAgentPlist(execPath string) ([]byte, error) {
	return plist.MarshalIndent(launchAgent{
		Label:            "dev." + Label + ".agent",
		ProgramArguments: []string{execPath, "run"},
		RunAtLoad:        true,
	}, plist.XMLFormat, "    ")
}

// runCommand is the command line stored in the Windows Run key
func runCommand(execPath string) string {
	return `"` + execPath + `" run`
}
