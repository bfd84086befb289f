//go:build !windows && !darwin

package autostart

func enable(string) error { return ErrUnsupported }

func disable() error { return ErrUnsupported }

func isEnabled() bool { return false }
