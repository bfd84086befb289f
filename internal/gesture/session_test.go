package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession(5)

	// moves while idle are ignored
	require.True(t, s.Move(Point{1, 1}))
	assert.Equal(t, 0, s.Len())

	require.True(t, s.Press())
	assert.True(t, s.Recording())

	for i := 0; i < 20; i++ {
		require.True(t, s.Move(Point{X: float64(i) * 10}))
	}
	assert.Equal(t, 20, s.Len())

	snapshot, ended, ok := s.Release()
	require.True(t, ok)
	require.True(t, ended)
	assert.Len(t, snapshot, 20)
	assert.False(t, s.Recording())
	assert.Equal(t, 0, s.Len())
}

func TestSessionPressClearsStalePoints(t *testing.T) {
	s := NewSession(5)
	s.Press()
	s.Move(Point{0, 0})
	s.Move(Point{50, 0})
	s.Press()
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Recording())
}

func TestSessionReleaseWhileIdleIsNoop(t *testing.T) {
	s := NewSession(5)
	snapshot, ended, ok := s.Release()
	assert.True(t, ok)
	assert.False(t, ended)
	assert.Nil(t, snapshot)
}

func TestSessionPressReleaseWithoutMoves(t *testing.T) {
	s := NewSession(5)
	s.Press()
	snapshot, ended, ok := s.Release()
	require.True(t, ok)
	require.True(t, ended)
	assert.NotNil(t, snapshot)
	assert.Empty(t, snapshot)

	_, recognized := Analyze(snapshot, DefaultThresholds())
	assert.False(t, recognized)
	assert.Equal(t, GatePointCount, Inspect(snapshot, DefaultThresholds()).Rejected)
}

func TestSessionSnapshotIsNotAliased(t *testing.T) {
	s := NewSession(5)
	s.Press()
	s.Move(Point{0, 0})
	s.Move(Point{10, 0})
	snapshot, _, _ := s.Release()

	// a new stroke must not write into the handed-over slice
	s.Press()
	s.Move(Point{99, 99})
	s.Move(Point{200, 200})

	assert.Equal(t, []Point{{0, 0}, {10, 0}}, snapshot)
}

func TestSessionDownsamplesMoves(t *testing.T) {
	s := NewSession(5)
	s.Press()
	for i := 0; i < 500; i++ {
		s.Move(Point{X: 300 + float64(i%4), Y: 300})
	}
	assert.Equal(t, 1, s.Len())
}

// TestSessionContentionDropsSample simulates the hook callback arriving while
// another goroutine holds the session lock.
func TestSessionContentionDropsSample(t *testing.T) {
	s := NewSession(5)
	s.Press()
	s.Move(Point{0, 0})

	s.mu.Lock()
	done := make(chan struct{})
	var pressOK, moveOK, releaseOK, ended bool
	go func() {
		defer close(done)
		pressOK = s.Press()
		moveOK = s.Move(Point{100, 100})
		_, ended, releaseOK = s.Release()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.mu.Unlock()
		t.Fatal("session transitions blocked on a held lock")
	}
	s.mu.Unlock()

	assert.False(t, pressOK)
	assert.False(t, moveOK)
	assert.False(t, releaseOK)
	assert.False(t, ended)

	// state is exactly what it was before the dropped attempts
	assert.True(t, s.Recording())
	assert.Equal(t, 1, s.Len())
}

func TestSessionSetStep(t *testing.T) {
	s := NewSession(5)
	s.SetStep(50)
	s.Press()
	s.Move(Point{0, 0})
	s.Move(Point{20, 0})
	s.Move(Point{60, 0})
	assert.Equal(t, 2, s.Len())
}
