package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/casement-dev/casement/internal/geometry"
	"github.com/casement-dev/casement/internal/host"
)

// Windows snapshots the current normal application windows from the EWMH
// client list. Docks, desktops and other furniture are filtered out.
func (b *Backend) Windows() ([]host.Window, error) {
	clients, err := ewmh.ClientListGet(b.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	windows := make([]host.Window, 0, len(clients))
	for _, win := range clients {
		if !b.isNormalWindow(win) {
			continue
		}
		windows = append(windows, b.snapshot(win))
	}
	return windows, nil
}

// snapshot reads one window's properties. Every read is best-effort: a
// window racing to destruction yields zero values, not an error.
func (b *Backend) snapshot(win xproto.Window) host.Window {
	w := host.Window{ID: host.WindowID(win)}
	if pid, err := ewmh.WmPidGet(b.xu, win); err == nil {
		w.PID = int(pid)
	}
	w.Title = b.windowTitle(win)
	w.AppID = b.windowAppID(win)
	if rect, err := b.windowRect(win); err == nil {
		w.Bounds = rect
	}
	return w
}

func (b *Backend) windowTitle(win xproto.Window) string {
	if title, err := ewmh.WmNameGet(b.xu, win); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(b.xu, win); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

func (b *Backend) windowAppID(win xproto.Window) string {
	wmClass, err := icccm.WmClassGet(b.xu, win)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// windowRect returns a window's outer position and size in root
// coordinates. GetGeometry alone reports coordinates relative to the
// window's parent (the WM frame), so the origin goes through
// TranslateCoordinates.
func (b *Backend) windowRect(win xproto.Window) (geometry.Rect, error) {
	geom, err := xproto.GetGeometry(b.xu.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return geometry.Rect{}, err
	}
	translate, err := xproto.TranslateCoordinates(b.xu.Conn(), win, b.root, 0, 0).Reply()
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

func (b *Backend) isNormalWindow(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(b.xu, win)
	if err != nil {
		// If we can't determine the type, assume it's normal.
		return true
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION",
			"_NET_WM_WINDOW_TYPE_TOOLTIP",
			"_NET_WM_WINDOW_TYPE_MENU":
			return false
		}
	}
	return len(types) == 0
}

// MoveResize places a window at bounds. Maximized and fullscreen windows
// ignore configure requests, so those states are dropped first.
func (b *Backend) MoveResize(id host.WindowID, bounds geometry.Rect) error {
	win := xproto.Window(id)
	b.unmaximize(win)

	err := ewmh.MoveresizeWindow(b.xu, win, bounds.X, bounds.Y, bounds.Width, bounds.Height)
	if err != nil {
		// Fall back to direct configuration for WMs without
		// _NET_MOVERESIZE_WINDOW support.
		xwindow.New(b.xu, win).MoveResize(bounds.X, bounds.Y, bounds.Width, bounds.Height)
	}
	return nil
}

func (b *Backend) unmaximize(win xproto.Window) {
	states, err := ewmh.WmStateGet(b.xu, win)
	if err != nil {
		return
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ",
			"_NET_WM_STATE_MAXIMIZED_VERT",
			"_NET_WM_STATE_FULLSCREEN":
			ewmh.WmStateReq(b.xu, win, 0, state)
		}
	}
}

// Activate raises and focuses a window via _NET_ACTIVE_WINDOW.
func (b *Backend) Activate(id host.WindowID) error {
	return b.clientMessage(xproto.Window(id), "_NET_ACTIVE_WINDOW", sourceIndication)
}

// CloseWindow asks the window manager to close a window gracefully via
// _NET_CLOSE_WINDOW. The application decides when (and whether) to exit.
func (b *Backend) CloseWindow(id host.WindowID) error {
	return b.clientMessage(xproto.Window(id), "_NET_CLOSE_WINDOW", 0, sourceIndication)
}
