//go:build !windows

package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStartUnsupported tests that a failed registration leaves no handler behind
func TestStartUnsupported(t *testing.T) {
	hk := NewHook()
	err := hk.Start(HandlerFunc(func(Event) {}))
	require.ErrorIs(t, err, ErrUnsupported)

	assert.False(t, hk.Active())
	assert.Nil(t, activeHandler.Load())
	assert.NoError(t, hk.Stop())

	// A later attempt is refused the same way, not blocked by stale state
	assert.ErrorIs(t, hk.Start(HandlerFunc(func(Event) {})), ErrUnsupported)
}

func TestPointerCaptureLifecycle(t *testing.T) {
	var pc PointerCapture = NewHook()
	require.ErrorIs(t, pc.Start(HandlerFunc(func(Event) {})), ErrUnsupported)

	select {
	case <-pc.Done():
	default:
		t.Fatal("Done should be closed once the hook thread gave up")
	}
	assert.False(t, pc.Active())
	assert.NoError(t, pc.Stop())
}
