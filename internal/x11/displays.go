package x11

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/casement-dev/casement/internal/geometry"
	"github.com/casement-dev/casement/internal/host"
)

// Displays enumerates active RandR outputs as displays with their work
// areas. The result is sorted ascending by work-area X origin, which is
// the ordering left/right selection runs on.
func (b *Backend) Displays() ([]host.Display, error) {
	resources, err := randr.GetScreenResources(b.xu.Conn(), b.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	primaryOutput := randr.Output(0)
	if reply, err := randr.GetOutputPrimary(b.xu.Conn(), b.root).Reply(); err == nil {
		primaryOutput = reply.Output
	}

	var displays []host.Display
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(b.xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs.
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("screen-%d", i)
		if outputInfo, err := randr.GetOutputInfo(b.xu.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(outputInfo.Name)
		}

		primary := false
		for _, out := range crtcInfo.Outputs {
			if out == primaryOutput && primaryOutput != 0 {
				primary = true
			}
		}

		full := geometry.Rect{
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		displays = append(displays, host.Display{
			ID:      name,
			Label:   fmt.Sprintf("%s %dx%d+%d+%d", name, full.Width, full.Height, full.X, full.Y),
			Primary: primary,
			Work:    full,
		})
	}

	if len(displays) == 0 {
		return nil, fmt.Errorf("no active displays")
	}

	for i := range displays {
		b.applyWorkArea(&displays[i])
	}

	sort.Slice(displays, func(i, j int) bool {
		if displays[i].Work.X != displays[j].Work.X {
			return displays[i].Work.X < displays[j].Work.X
		}
		return displays[i].Work.Y < displays[j].Work.Y
	})
	return displays, nil
}

// applyWorkArea shrinks a display to the area windows may occupy. Dock
// struts are preferred: the EWMH work area spans the whole virtual screen,
// so on multi-head setups it punishes every display for one display's
// panel. The work-area intersection only runs when no strut is found.
func (b *Backend) applyWorkArea(d *host.Display) {
	if b.applyStruts(d) {
		return
	}

	workAreas, err := ewmh.WorkareaGet(b.xu)
	if err != nil || len(workAreas) == 0 {
		return
	}
	idx := 0
	if cur, err := ewmh.CurrentDesktopGet(b.xu); err == nil && int(cur) < len(workAreas) {
		idx = int(cur)
	}
	wa := workAreas[idx]
	o := overlap(d.Work, geometry.Rect{
		X:      int(wa.X),
		Y:      int(wa.Y),
		Width:  int(wa.Width),
		Height: int(wa.Height),
	})
	if o.Width > 0 && o.Height > 0 {
		d.Work = o
	}
}

type strutGap struct {
	left   int
	right  int
	top    int
	bottom int
}

// applyStruts subtracts every dock strut overlapping the display from its
// work area. Reports whether any strut applied.
func (b *Backend) applyStruts(d *host.Display) bool {
	rootGeom, err := xproto.GetGeometry(b.xu.Conn(), xproto.Drawable(b.root)).Reply()
	if err != nil {
		return false
	}
	rootW := int(rootGeom.Width)
	rootH := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(b.xu)
	if err != nil {
		return false
	}

	var gap strutGap
	for _, win := range clients {
		if !b.isDock(win) {
			continue
		}

		sp, err := ewmh.WmStrutPartialGet(b.xu, win)
		if err != nil {
			// Some docks only set _NET_WM_STRUT (no partial ranges).
			s, serr := ewmh.WmStrutGet(b.xu, win)
			if serr != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left:         s.Left,
				Right:        s.Right,
				Top:          s.Top,
				Bottom:       s.Bottom,
				LeftStartY:   0,
				LeftEndY:     uint(rootH - 1),
				RightStartY:  0,
				RightEndY:    uint(rootH - 1),
				TopStartX:    0,
				TopEndX:      uint(rootW - 1),
				BottomStartX: 0,
				BottomEndX:   uint(rootW - 1),
			}
		}
		accumulateStruts(d.Work, rootW, rootH, sp, &gap)
	}

	if gap == (strutGap{}) {
		return false
	}

	d.Work.X += gap.left
	d.Work.Y += gap.top
	d.Work.Width -= gap.left + gap.right
	d.Work.Height -= gap.top + gap.bottom
	if d.Work.Width < 1 {
		d.Work.Width = 1
	}
	if d.Work.Height < 1 {
		d.Work.Height = 1
	}
	return true
}

// accumulateStruts folds one strut property into acc, counting only the
// band portions that actually overlap work.
func accumulateStruts(work geometry.Rect, rootW, rootH int, sp *ewmh.WmStrutPartial, acc *strutGap) {
	if sp.Top > 0 {
		band := geometry.Rect{
			X: int(sp.TopStartX), Y: 0,
			Width: int(sp.TopEndX) - int(sp.TopStartX) + 1, Height: int(sp.Top),
		}
		if o := overlap(work, band); o.Height > 0 {
			acc.top = max(acc.top, o.Height)
		}
	}
	if sp.Bottom > 0 {
		band := geometry.Rect{
			X: int(sp.BottomStartX), Y: rootH - int(sp.Bottom),
			Width: int(sp.BottomEndX) - int(sp.BottomStartX) + 1, Height: int(sp.Bottom),
		}
		if o := overlap(work, band); o.Height > 0 {
			acc.bottom = max(acc.bottom, o.Height)
		}
	}
	if sp.Left > 0 {
		band := geometry.Rect{
			X: 0, Y: int(sp.LeftStartY),
			Width: int(sp.Left), Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1,
		}
		if o := overlap(work, band); o.Width > 0 {
			acc.left = max(acc.left, o.Width)
		}
	}
	if sp.Right > 0 {
		band := geometry.Rect{
			X: rootW - int(sp.Right), Y: int(sp.RightStartY),
			Width: int(sp.Right), Height: int(sp.RightEndY) - int(sp.RightStartY) + 1,
		}
		if o := overlap(work, band); o.Width > 0 {
			acc.right = max(acc.right, o.Width)
		}
	}
}

func overlap(a, b geometry.Rect) geometry.Rect {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return geometry.Rect{}
	}
	return geometry.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (b *Backend) isDock(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(b.xu, win)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}
