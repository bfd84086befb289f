// Package input installs the system-wide low-level pointer hook and maps
// native pointer notifications onto logical press/move/release events.
package input

// Kind identifies a logical pointer notification
type Kind int

const (
	// KindPress is a primary-button-down notification
	KindPress Kind = iota + 1
	// KindMove is a pointer-move notification
	KindMove
	// KindRelease is a primary-button-up notification
	KindRelease
)

func (k Kind) String() string {
	switch k {
	case KindPress:
		return "press"
	case KindMove:
		return "move"
	case KindRelease:
		return "release"
	}
	return "unknown"
}

// Event is a single pointer notification in physical pixels
type Event struct {
	Kind Kind  `json:"kind"`
	X    int32 `json:"x"`
	Y    int32 `json:"y"`
}

// Handler receives events synchronously on the hook thread.
// Implementations must return quickly and never block.
type Handler interface {
	HandlePointer(ev Event)
}

// HandlerFunc adapts a plain function to the Handler interface
type HandlerFunc func(ev Event)

// HandlePointer calls f(ev)
func (f HandlerFunc) HandlePointer(ev Event) {
	f(ev)
}

// PointerCapture defines the lifecycle of a system-wide pointer hook
type PointerCapture interface {
	Start(h Handler) error
	Stop() error
	Active() bool
	Done() <-chan struct{}
}
