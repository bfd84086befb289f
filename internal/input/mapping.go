package input

// Native pointer message codes delivered to a WH_MOUSE_LL hook as wParam
const (
	WM_MOUSEMOVE   = 0x0200
	WM_LBUTTONDOWN = 0x0201
	WM_LBUTTONUP   = 0x0202
	WM_RBUTTONDOWN = 0x0204
	WM_RBUTTONUP   = 0x0205
	WM_MBUTTONDOWN = 0x0207
	WM_MBUTTONUP   = 0x0208
	WM_MOUSEWHEEL  = 0x020A
)

// Translate maps a native pointer message and its screen position onto a
// logical event. Only the primary button and plain moves are of interest;
// everything else reports ok == false.
func Translate(msg uintptr, x, y int32) (Event, bool) {
	switch msg {
	case WM_LBUTTONDOWN:
		return Event{Kind: KindPress, X: x, Y: y}, true
	case WM_MOUSEMOVE:
		return Event{Kind: KindMove, X: x, Y: y}, true
	case WM_LBUTTONUP:
		return Event{Kind: KindRelease, X: x, Y: y}, true
	}
	return Event{}, false
}
