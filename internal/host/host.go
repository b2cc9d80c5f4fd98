package host

import "github.com/casement-dev/casement/internal/geometry"

// WindowID identifies a native window to the backend.
type WindowID uint32

// Window is a point-in-time snapshot of one native window.
type Window struct {
	ID     WindowID
	PID    int
	AppID  string
	Title  string
	Bounds geometry.Rect
}

// Display is the work-area snapshot of one physical display, taken at
// enumeration time. Hot-plug changes only show up on re-enumeration.
type Display struct {
	ID      string
	Label   string
	Primary bool
	Work    geometry.Rect
}

// Backend is the capability surface casement needs from a windowing
// system. Every operation is declared here statically; nothing is
// discovered from the host at runtime.
type Backend interface {
	// Displays returns the active displays sorted ascending by work-area X
	// origin. That ordering is the sole basis for left/right selection.
	Displays() ([]Display, error)
	// Windows returns the current normal application windows.
	Windows() ([]Window, error)
	// MoveResize places a window at bounds.
	MoveResize(id WindowID, bounds geometry.Rect) error
	// Activate raises and focuses a window.
	Activate(id WindowID) error
	// CloseWindow asks a window to close gracefully. The window disappears
	// from Windows() once the application honors the request.
	CloseWindow(id WindowID) error
	// Spawn starts a program expected to map a window and returns its pid.
	Spawn(command string, args ...string) (int, error)
	// Close releases the backend connection.
	Close() error
}

// PrimaryID returns the id of the flagged primary display, or the first
// display when none carries the flag.
func PrimaryID(displays []Display) string {
	for _, d := range displays {
		if d.Primary {
			return d.ID
		}
	}
	if len(displays) > 0 {
		return displays[0].ID
	}
	return ""
}
