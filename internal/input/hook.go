package input

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var (
	// ErrUnsupported is returned by Start on platforms without a low-level pointer hook
	ErrUnsupported = errors.New("low-level pointer hook not supported on this platform")

	// ErrHookRegistration wraps the OS error when the hook cannot be installed
	ErrHookRegistration = errors.New("failed to register low-level pointer hook")

	// ErrAlreadyRunning is returned when a hook is already installed in this process
	ErrAlreadyRunning = errors.New("pointer hook already running")
)

type handlerRef struct {
	h Handler
}

// The native callback has a fixed signature and cannot carry context, so the
// handler of the single installed hook lives here. Loaded without locking on
// every callback.
var activeHandler atomic.Pointer[handlerRef]

func deliver(ev Event) {
	if ref := activeHandler.Load(); ref != nil {
		ref.h.HandlePointer(ev)
	}
}

// Hook owns the lifetime of the process-wide low-level pointer hook and the
// dedicated thread that pumps messages for it.
type Hook struct {
	mu       sync.Mutex
	running  bool
	active   atomic.Bool
	threadID uint32
	done     chan struct{}
	log      *logrus.Entry
}

var _ PointerCapture = (*Hook)(nil)

// NewHook creates an idle hook; call Start to install it
func NewHook() *Hook {
	return &Hook{
		log: logrus.WithField("component", "hook"),
	}
}

// Start registers h as the receiver of pointer events and starts the hook
// thread. It returns once the OS has accepted or refused the hook.
// A refusal is not retried.
func (hk *Hook) Start(h Handler) error {
	hk.mu.Lock()
	defer hk.mu.Unlock()

	if hk.running {
		return ErrAlreadyRunning
	}
	if !activeHandler.CompareAndSwap(nil, &handlerRef{h: h}) {
		return ErrAlreadyRunning
	}

	ready := make(chan error, 1)
	hk.done = make(chan struct{})
	go hk.hookThread(ready)

	if err := <-ready; err != nil {
		<-hk.done
		activeHandler.Store(nil)
		return err
	}

	hk.running = true
	return nil
}

// Stop asks the hook thread to quit and waits for the hook to be removed.
// Safe to call when the thread already exited on its own.
func (hk *Hook) Stop() error {
	hk.mu.Lock()
	defer hk.mu.Unlock()

	if !hk.running {
		return nil
	}

	select {
	case <-hk.done:
	default:
		if err := hk.postQuit(); err != nil {
			return err
		}
		<-hk.done
	}

	hk.running = false
	activeHandler.Store(nil)
	return nil
}

// Active reports whether the hook is currently installed and pumping
func (hk *Hook) Active() bool {
	return hk.active.Load()
}

// Done is closed when the hook thread has exited
func (hk *Hook) Done() <-chan struct{} {
	hk.mu.Lock()
	defer hk.mu.Unlock()
	if hk.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return hk.done
}
