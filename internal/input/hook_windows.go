//go:build windows

package input

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procPeekMessage         = user32.NewProc("PeekMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	WH_MOUSE_LL = 14
	WM_QUIT     = 0x0012
	WM_USER     = 0x0400
	PM_NOREMOVE = 0x0000
)

type POINT struct {
	X, Y int32
}

type MSLLHOOKSTRUCT struct {
	Pt          POINT
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type MSG struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      POINT
}

var (
	// Only touched on the hook thread.
	mouseHook uintptr

	// Callback slots are a finite resource, allocate once.
	mouseHookCallback = windows.NewCallback(mouseHookProc)
)

// hookThread installs the hook and pumps messages on a locked OS thread.
// The callback is invoked from inside GetMessageW on this thread only.
func (hk *Hook) hookThread(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(hk.done)

	hk.threadID = windows.GetCurrentThreadId()

	// Force creation of the thread message queue so Stop can post WM_QUIT
	var msg MSG
	procPeekMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, WM_USER, WM_USER, PM_NOREMOVE)

	hMod, _, _ := procGetModuleHandle.Call(0)
	hook, _, err := procSetWindowsHookEx.Call(
		WH_MOUSE_LL,
		mouseHookCallback,
		hMod,
		0, // all threads on the desktop
	)
	if hook == 0 {
		hk.log.WithError(err).Error("SetWindowsHookExW failed; circle gestures disabled for this run")
		hk.log.Error("Common causes: missing privileges or security software blocking global hooks")
		ready <- fmt.Errorf("%w: %v", ErrHookRegistration, err)
		return
	}

	mouseHook = hook
	hk.active.Store(true)
	hk.log.WithField("thread", hk.threadID).Info("Pointer hook installed, pumping messages")
	ready <- nil

pump:
	for {
		ret, _, err := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case 0:
			hk.log.Info("WM_QUIT received")
			break pump
		case -1:
			hk.log.WithError(err).Error("GetMessageW failed")
			break pump
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
	}

	procUnhookWindowsHookEx.Call(mouseHook)
	mouseHook = 0
	hk.active.Store(false)
	hk.log.Info("Hook thread exiting")
}

func (hk *Hook) postQuit() error {
	ret, _, err := procPostThreadMessage.Call(uintptr(hk.threadID), WM_QUIT, 0, 0)
	if ret == 0 {
		return fmt.Errorf("post WM_QUIT to hook thread %d: %v", hk.threadID, err)
	}
	return nil
}

// mouseHookProc runs inline in the system input path and must return fast
func mouseHookProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		ms := (*MSLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		if ev, ok := Translate(wParam, ms.Pt.X, ms.Pt.Y); ok {
			deliver(ev)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(mouseHook, uintptr(nCode), wParam, lParam)
	return ret
}
