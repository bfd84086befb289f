//go:build !windows

package input

// Stub implementation for platforms without WH_MOUSE_LL

func (hk *Hook) hookThread(ready chan<- error) {
	defer close(hk.done)
	ready <- ErrUnsupported
}

func (hk *Hook) postQuit() error {
	return nil
}
