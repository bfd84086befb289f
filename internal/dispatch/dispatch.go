// Package dispatch hands recognized circles to the application layer,
// converting them from physical to logical pixels on the way.
package dispatch

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gesturehook/internal/gesture"
)

// EventCircle is the event name consumers subscribe to
const EventCircle = "gesture-circle"

// ErrNoListeners is returned by an Emitter when nobody is attached
var ErrNoListeners = errors.New("no listeners attached")

// Emitter delivers a named event to the application layer
type Emitter interface {
	Emit(event string, payload any) error
}

// ScaleSource reports the DPI scale factor of the primary surface
type ScaleSource interface {
	ScaleFactor() (float64, error)
}

// ScaleFunc adapts a function to the ScaleSource interface
type ScaleFunc func() (float64, error)

// ScaleFactor calls f()
func (f ScaleFunc) ScaleFactor() (float64, error) {
	return f()
}

// Recorder is notified of every payload the dispatcher produces
type Recorder interface {
	Record(p Payload)
}

// Payload is the event body, in logical pixels
type Payload struct {
	ID string `json:"id"`
	gesture.Circle
	Scale     float64   `json:"scale"`
	Timestamp time.Time `json:"timestamp"`
}

// Dispatcher implements gesture.Sink
type Dispatcher struct {
	emitter Emitter
	scale   ScaleSource

	mu        sync.RWMutex
	recorders []Recorder

	clock func() time.Time
	log   *logrus.Entry
}

// New creates a dispatcher. scale may be nil, meaning a factor of 1.0.
func New(emitter Emitter, scale ScaleSource) *Dispatcher {
	return &Dispatcher{
		emitter: emitter,
		scale:   scale,
		clock:   time.Now,
		log:     logrus.WithField("component", "dispatch"),
	}
}

// AddRecorder registers r to see every delivered payload
func (d *Dispatcher) AddRecorder(r Recorder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recorders = append(d.recorders, r)
}

// Deliver converts c to logical pixels and emits it. Emit failures are
// logged and otherwise ignored.
func (d *Dispatcher) Deliver(c gesture.Circle, _ gesture.Report) {
	scale := d.resolveScale()
	p := Payload{
		ID:        uuid.NewString(),
		Circle:    ToLogical(c, scale),
		Scale:     scale,
		Timestamp: d.clock().UTC(),
	}

	d.mu.RLock()
	for _, r := range d.recorders {
		r.Record(p)
	}
	d.mu.RUnlock()

	entry := d.log.WithFields(logrus.Fields{
		"id":       p.ID,
		"center_x": p.CenterX,
		"center_y": p.CenterY,
		"radius":   p.Radius,
		"scale":    scale,
	})

	if d.emitter == nil {
		entry.Warn("No emitter configured, dropping gesture event")
		return
	}
	if err := d.emitter.Emit(EventCircle, p); err != nil {
		if errors.Is(err, ErrNoListeners) {
			entry.Info("Gesture event emitted with no listeners attached")
			return
		}
		entry.WithError(err).Warn("Failed to emit gesture event")
		return
	}
	entry.Debug("Gesture event emitted")
}

// resolveScale queries the scale once, falling back to 1.0 when the query
// fails or answers something unusable
func (d *Dispatcher) resolveScale() float64 {
	if d.scale == nil {
		return 1.0
	}
	scale, err := d.scale.ScaleFactor()
	if err != nil {
		d.log.WithError(err).Debug("Scale factor unavailable, using 1.0")
		return 1.0
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 1.0 {
		d.log.WithField("scale", scale).Warn("Ignoring invalid scale factor, using 1.0")
		return 1.0
	}
	return scale
}

// ToLogical divides the circle's geometry by scale
func ToLogical(c gesture.Circle, scale float64) gesture.Circle {
	if scale <= 0 {
		scale = 1.0
	}
	return gesture.Circle{
		CenterX: c.CenterX / scale,
		CenterY: c.CenterY / scale,
		Radius:  c.Radius / scale,
	}
}
