package gesture

import "sync"

// Session is the live stroke being recorded. It is mutated from the hook
// callback, so every transition only ever tries the lock: under contention
// the sample is dropped and state is left untouched.
type Session struct {
	mu        sync.Mutex
	recording bool
	points    []Point
	step      float64
}

// NewSession creates an idle session that keeps samples at least step apart
func NewSession(step float64) *Session {
	return &Session{step: step}
}

// SetStep changes the downsample step for subsequent moves
func (s *Session) SetStep(step float64) {
	s.mu.Lock()
	s.step = step
	s.mu.Unlock()
}

// Press starts a new recording, discarding any stale points.
// Returns false if the sample was dropped.
func (s *Session) Press() bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	s.points = s.points[:0]
	s.recording = true
	return true
}

// Move appends p while recording if the sample filter keeps it.
// Returns false if the sample was dropped under contention.
func (s *Session) Move(p Point) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	if s.recording && KeepSample(s.points, p, s.step) {
		s.points = append(s.points, p)
	}
	return true
}

// Release ends the recording and hands over ownership of the recorded
// points; the session keeps a fresh empty sequence. ended is false when the
// session was already idle. ok is false when the sample was dropped.
func (s *Session) Release() (snapshot []Point, ended bool, ok bool) {
	if !s.mu.TryLock() {
		return nil, false, false
	}
	defer s.mu.Unlock()

	if !s.recording {
		return nil, false, true
	}
	s.recording = false
	snapshot = s.points
	if snapshot == nil {
		snapshot = []Point{}
	}
	s.points = nil
	return snapshot, true, true
}

// Reset abandons any stroke in progress. It waits for the lock, so it must
// not be called from the hook callback.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	s.points = nil
}

// Recording reports whether a stroke is in progress
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Len returns the number of kept points in the current stroke
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}
