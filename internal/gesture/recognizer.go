package gesture

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"gesturehook/internal/input"
)

// Sink receives recognized circles, in physical pixels
type Sink interface {
	Deliver(c Circle, r Report)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(c Circle, r Report)

// Deliver calls f(c, r)
func (f SinkFunc) Deliver(c Circle, r Report) {
	f(c, r)
}

// Stats counts what the recognizer has seen since it was created
type Stats struct {
	Strokes    uint64 `json:"strokes"`
	Recognized uint64 `json:"recognized"`
	Dropped    uint64 `json:"dropped"`
}

// Recognizer turns hook events into strokes and analyzes each completed
// stroke on its own goroutine, so the hook thread never waits on analysis.
type Recognizer struct {
	session    *Session
	thresholds atomic.Pointer[Thresholds]
	enabled    atomic.Bool
	sink       Sink
	wg         sync.WaitGroup

	strokes    atomic.Uint64
	recognized atomic.Uint64
	dropped    atomic.Uint64

	log *logrus.Entry
}

// NewRecognizer creates an enabled recognizer delivering to sink
func NewRecognizer(t Thresholds, sink Sink) *Recognizer {
	r := &Recognizer{
		session: NewSession(t.SampleDistance),
		sink:    sink,
		log:     logrus.WithField("component", "gesture"),
	}
	r.thresholds.Store(&t)
	r.enabled.Store(true)
	return r
}

// HandlePointer implements input.Handler. Runs on the hook thread.
func (r *Recognizer) HandlePointer(ev input.Event) {
	if !r.enabled.Load() {
		return
	}

	var ok bool
	switch ev.Kind {
	case input.KindPress:
		ok = r.session.Press()
	case input.KindMove:
		ok = r.session.Move(Point{X: float64(ev.X), Y: float64(ev.Y)})
	case input.KindRelease:
		var snapshot []Point
		var ended bool
		snapshot, ended, ok = r.session.Release()
		if ended {
			r.strokes.Add(1)
			t := *r.thresholds.Load()
			r.wg.Add(1)
			go r.analyze(snapshot, t)
		}
	default:
		return
	}

	if !ok {
		r.dropped.Add(1)
	}
}

func (r *Recognizer) analyze(points []Point, t Thresholds) {
	defer r.wg.Done()

	report := Inspect(points, t)
	entry := r.log.WithFields(logrus.Fields{
		"points":     report.Points,
		"center":     [2]float64{report.CenterX, report.CenterY},
		"avg_radius": report.AvgRadius,
		"deviation":  report.Deviation,
		"sectors":    report.SectorsCovered,
		"closure":    report.ClosureRatio,
	})

	if !report.Recognized() {
		entry.WithField("rejected", report.Rejected).Debug("Stroke rejected")
		return
	}

	r.recognized.Add(1)
	entry.Info("Circle recognized")
	if r.sink != nil {
		r.sink.Deliver(report.Circle(), report)
	}
}

// SetThresholds validates and swaps the tuning used for later strokes
func (r *Recognizer) SetThresholds(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.thresholds.Store(&t)
	r.session.SetStep(t.SampleDistance)
	return nil
}

// Thresholds returns the current tuning
func (r *Recognizer) Thresholds() Thresholds {
	return *r.thresholds.Load()
}

// SetEnabled turns recognition on or off; events are ignored while off.
// Turning it off drops any half-drawn stroke.
func (r *Recognizer) SetEnabled(enabled bool) {
	r.enabled.Store(enabled)
	if !enabled {
		r.session.Reset()
	}
	r.log.WithField("enabled", enabled).Info("Circle gestures toggled")
}

// Enabled reports whether recognition is on
func (r *Recognizer) Enabled() bool {
	return r.enabled.Load()
}

// Session exposes the live stroke for status reporting
func (r *Recognizer) Session() *Session {
	return r.session
}

// Stats returns the current counters
func (r *Recognizer) Stats() Stats {
	return Stats{
		Strokes:    r.strokes.Load(),
		Recognized: r.recognized.Load(),
		Dropped:    r.dropped.Load(),
	}
}

// Wait blocks until every in-flight analysis has finished.
// The hook path never calls it.
func (r *Recognizer) Wait() {
	r.wg.Wait()
}
