package wm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/casement-dev/casement/internal/audit"
	"github.com/casement-dev/casement/internal/bridge"
	"github.com/casement-dev/casement/internal/config"
	"github.com/casement-dev/casement/internal/display"
	"github.com/casement-dev/casement/internal/events"
	"github.com/casement-dev/casement/internal/geometry"
	"github.com/casement-dev/casement/internal/host"
	"github.com/casement-dev/casement/internal/route"
	"github.com/casement-dev/casement/internal/settings"
)

// managedWindow is one window the manager opened, with its scoped table.
type managedWindow struct {
	handle   string
	window   host.Window
	table    *route.Table
	openedAt time.Time
}

// ManagerConfig holds everything a Manager needs.
type ManagerConfig struct {
	Config   *config.Config
	Backend  host.Backend
	Settings *settings.Store
	Hub      *events.Hub
	Audit    *audit.Logger
	Logger   *slog.Logger
	Version  string
	ReloadCh chan struct{}
}

// Manager owns the window registry and the route tables the bridge
// dispatches into. The global table carries the manager-wide middleware;
// window-scoped tables run bare so a window operation cannot be blocked by
// global concerns it already passed through on registration.
type Manager struct {
	logger  *slog.Logger
	backend host.Backend
	store   *settings.Store
	hub     *events.Hub
	audit   *audit.Logger

	cfgMu sync.RWMutex
	cfg   *config.Config

	global *route.Table

	mu      sync.RWMutex
	windows map[string]*managedWindow
	byID    map[host.WindowID]string

	startTime time.Time
	version   string
	draining  atomic.Bool
	reloadCh  chan struct{}
}

// NewManager creates a manager and registers the built-in global routes.
func NewManager(mc ManagerConfig) (*Manager, error) {
	if mc.Backend == nil {
		return nil, fmt.Errorf("manager requires a backend")
	}
	if mc.Config == nil {
		mc.Config = config.DefaultConfig()
	}
	logger := mc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger:    logger,
		backend:   mc.Backend,
		store:     mc.Settings,
		hub:       mc.Hub,
		audit:     mc.Audit,
		cfg:       mc.Config,
		global:    route.NewTable("global", logger),
		windows:   make(map[string]*managedWindow),
		byID:      make(map[host.WindowID]string),
		startTime: time.Now(),
		version:   mc.Version,
		reloadCh:  mc.ReloadCh,
	}

	m.global.Use(audit.Middleware(m.audit))
	m.global.Use(m.drainGate)

	if err := m.registerGlobalRoutes(); err != nil {
		return nil, err
	}
	return m, nil
}

// Config returns the current config (thread-safe)
func (m *Manager) Config() *config.Config {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg
}

// UpdateConfig swaps in a reloaded config (thread-safe)
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	m.cfg = cfg
}

// Drain flips the manager into shutdown mode: every global dispatch from
// here on is answered with a drain notice instead of running.
func (m *Manager) Drain() {
	if m.draining.CompareAndSwap(false, true) {
		m.audit.Log(audit.ActionDrain, "", nil)
		m.logger.Info("manager draining")
	}
}

// Draining reports whether Drain has been called.
func (m *Manager) Draining() bool {
	return m.draining.Load()
}

// drainGate short-circuits dispatches while shutting down. It settles the
// chain with a notice value; nothing downstream runs.
func (m *Manager) drainGate(ctx context.Context, req *route.Request, next func(), respond func(any)) {
	if m.draining.Load() {
		respond(bridge.DrainNotice{Draining: true, Message: "daemon is shutting down"})
		return
	}
	next()
}

// Dispatch routes one operation. An empty scope targets the global table.
// A window scope tries the window's table first and falls back to the
// global table when the window has no such route.
func (m *Manager) Dispatch(ctx context.Context, scope string, method route.Method, path string, body json.RawMessage) (route.Outcome, bool, error) {
	if scope == "" {
		out, found := m.global.Dispatch(ctx, path, method, body)
		return out, found, nil
	}

	m.mu.RLock()
	rec, ok := m.windows[scope]
	m.mu.RUnlock()
	if !ok {
		return route.Outcome{}, false, fmt.Errorf("unknown window handle %q", scope)
	}

	if out, found := rec.table.Dispatch(ctx, path, method, body); found {
		return out, true, nil
	}
	out, found := m.global.Dispatch(ctx, path, method, body)
	return out, found, nil
}

// Open launches a command, waits for the window it maps, and places it.
func (m *Manager) Open(ctx context.Context, req bridge.OpenRequest) (*bridge.WindowInfo, error) {
	if req.Command == "" {
		return nil, fmt.Errorf("command is required")
	}

	cfg := m.Config()

	chosen, err := m.chooseDisplay(req.Display, cfg)
	if err != nil {
		return nil, err
	}

	spec, err := placementSpec(req.Width, req.Height, req.X, req.Y, req.Padding, cfg.Placement)
	if err != nil {
		return nil, err
	}
	rect, err := geometry.Resolve(spec, chosen.Work)
	if err != nil {
		return nil, err
	}

	before, err := m.snapshotIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list windows before spawn: %w", err)
	}

	pid, err := m.backend.Spawn(req.Command, req.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn %q: %w", req.Command, err)
	}

	win, err := m.adopt(ctx, pid, before, cfg.Spawn)
	if err != nil {
		return nil, err
	}

	if err := m.backend.MoveResize(win.ID, rect); err != nil {
		// The window exists; manage it where it landed.
		m.logger.Warn("initial placement failed", "window", win.ID, "error", err)
	} else {
		win.Bounds = rect
	}

	rec, err := m.register(win)
	if err != nil {
		return nil, err
	}

	info := m.info(rec)
	m.publish(events.WindowOpened, windowEvent{
		Handle: rec.handle,
		ID:     uint32(win.ID),
		PID:    win.PID,
		Title:  win.Title,
		Bounds: win.Bounds,
	})
	m.audit.Log(audit.ActionOpen, rec.handle, map[string]interface{}{
		"command": req.Command,
		"pid":     win.PID,
		"display": chosen.ID,
	})
	m.logger.Info("window opened",
		"handle", rec.handle,
		"window", win.ID,
		"pid", win.PID,
		"display", chosen.ID)

	return &info, nil
}

// adopt polls for a window created after the snapshot. A pid match wins;
// otherwise the first unrecognized window is taken when the deadline runs
// out, since not every client keeps its spawn pid on the window it maps.
func (m *Manager) adopt(ctx context.Context, pid int, before map[host.WindowID]struct{}, sp config.Spawn) (host.Window, error) {
	deadline := time.Now().Add(sp.AdoptTimeout())
	var fallback *host.Window

	for {
		wins, err := m.backend.Windows()
		if err == nil {
			for i := range wins {
				w := wins[i]
				if _, existed := before[w.ID]; existed {
					continue
				}
				if m.handleForID(w.ID) != "" {
					continue
				}
				if w.PID == pid {
					return w, nil
				}
				if fallback == nil {
					fallback = &w
				}
			}
		}

		if time.Now().After(deadline) {
			if fallback != nil {
				return *fallback, nil
			}
			return host.Window{}, fmt.Errorf("no window appeared for pid %d within %s", pid, sp.AdoptTimeout())
		}

		select {
		case <-ctx.Done():
			return host.Window{}, ctx.Err()
		case <-time.After(sp.PollInterval()):
		}
	}
}

// Close asks the backend to close a managed window. Closing is a request:
// the registry entry stays until the reconciler observes the window gone.
func (m *Manager) Close(handle string) error {
	rec, err := m.lookup(handle)
	if err != nil {
		return err
	}
	if err := m.backend.CloseWindow(rec.window.ID); err != nil {
		return fmt.Errorf("failed to close window: %w", err)
	}
	m.audit.Log(audit.ActionClose, handle, map[string]interface{}{
		"window": uint32(rec.window.ID),
	})
	return nil
}

// Place re-resolves geometry for a managed window and moves it.
func (m *Manager) Place(handle string, req bridge.PlaceRequest) (*bridge.WindowInfo, error) {
	rec, err := m.lookup(handle)
	if err != nil {
		return nil, err
	}

	cfg := m.Config()
	chosen, err := m.chooseDisplay(req.Display, cfg)
	if err != nil {
		return nil, err
	}
	spec, err := placementSpec(req.Width, req.Height, req.X, req.Y, req.Padding, cfg.Placement)
	if err != nil {
		return nil, err
	}
	rect, err := geometry.Resolve(spec, chosen.Work)
	if err != nil {
		return nil, err
	}

	if err := m.backend.MoveResize(rec.window.ID, rect); err != nil {
		return nil, fmt.Errorf("failed to place window: %w", err)
	}

	m.mu.Lock()
	rec.window.Bounds = rect
	m.mu.Unlock()

	info := m.info(rec)
	m.publish(events.WindowMoved, windowEvent{
		Handle: rec.handle,
		ID:     uint32(rec.window.ID),
		Bounds: rect,
	})
	m.audit.Log(audit.ActionPlace, handle, map[string]interface{}{
		"x":      rect.X,
		"y":      rect.Y,
		"width":  rect.Width,
		"height": rect.Height,
	})
	return &info, nil
}

// Raise activates a managed window.
func (m *Manager) Raise(handle string) error {
	rec, err := m.lookup(handle)
	if err != nil {
		return err
	}
	if err := m.backend.Activate(rec.window.ID); err != nil {
		return fmt.Errorf("failed to raise window: %w", err)
	}
	return nil
}

// List returns the managed windows, oldest first.
func (m *Manager) List() []bridge.WindowInfo {
	m.mu.RLock()
	recs := make([]*managedWindow, 0, len(m.windows))
	for _, rec := range m.windows {
		recs = append(recs, rec)
	}
	m.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].openedAt.Equal(recs[j].openedAt) {
			return recs[i].handle < recs[j].handle
		}
		return recs[i].openedAt.Before(recs[j].openedAt)
	})

	out := make([]bridge.WindowInfo, len(recs))
	for i, rec := range recs {
		out[i] = m.info(rec)
	}
	return out
}

// Describe returns one managed window by handle.
func (m *Manager) Describe(handle string) (*bridge.WindowInfo, error) {
	rec, err := m.lookup(handle)
	if err != nil {
		return nil, err
	}
	info := m.info(rec)
	return &info, nil
}

// WindowCount returns the registry size.
func (m *Manager) WindowCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.windows)
}

func (m *Manager) lookup(handle string) (*managedWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.windows[handle]
	if !ok {
		return nil, fmt.Errorf("unknown window handle %q", handle)
	}
	return rec, nil
}

func (m *Manager) handleForID(id host.WindowID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

func (m *Manager) register(win host.Window) (*managedWindow, error) {
	handle := uuid.NewString()
	table := route.NewTable(handle, m.logger)
	if err := m.registerWindowRoutes(table, handle); err != nil {
		return nil, err
	}

	rec := &managedWindow{
		handle:   handle,
		window:   win,
		table:    table,
		openedAt: time.Now(),
	}

	m.mu.Lock()
	m.windows[handle] = rec
	m.byID[win.ID] = handle
	m.mu.Unlock()

	return rec, nil
}

func (m *Manager) unregister(rec *managedWindow) {
	m.mu.Lock()
	delete(m.windows, rec.handle)
	delete(m.byID, rec.window.ID)
	m.mu.Unlock()
}

func (m *Manager) snapshotIDs() (map[host.WindowID]struct{}, error) {
	wins, err := m.backend.Windows()
	if err != nil {
		return nil, err
	}
	out := make(map[host.WindowID]struct{}, len(wins))
	for _, w := range wins {
		out[w.ID] = struct{}{}
	}
	return out, nil
}

func (m *Manager) chooseDisplay(pref display.Preference, cfg *config.Config) (host.Display, error) {
	if len(pref) == 0 {
		pref = display.Preference(cfg.Placement.Display)
	}
	displays, err := m.backend.Displays()
	if err != nil {
		return host.Display{}, fmt.Errorf("failed to list displays: %w", err)
	}
	return display.Choose(pref, displays, host.PrimaryID(displays))
}

// placementSpec merges request geometry over the configured defaults. The
// config strings were validated at load, so their parse cannot fail in
// practice; the error path stays for configs swapped in at runtime.
func placementSpec(w, h, x, y *geometry.Value, padding *int, defaults config.Placement) (geometry.Spec, error) {
	spec := geometry.Spec{}

	var err error
	if spec.Width, err = pickValue(w, defaults.Width, "width"); err != nil {
		return geometry.Spec{}, err
	}
	if spec.Height, err = pickValue(h, defaults.Height, "height"); err != nil {
		return geometry.Spec{}, err
	}
	if spec.X, err = pickValue(x, defaults.X, "x"); err != nil {
		return geometry.Spec{}, err
	}
	if spec.Y, err = pickValue(y, defaults.Y, "y"); err != nil {
		return geometry.Spec{}, err
	}

	if padding != nil {
		spec.Padding = *padding
	} else {
		spec.Padding = defaults.Padding
	}
	return spec, nil
}

func pickValue(v *geometry.Value, fallback string, field string) (geometry.Value, error) {
	if v != nil {
		return *v, nil
	}
	parsed, err := geometry.ParseValue(fallback)
	if err != nil {
		return geometry.Value{}, fmt.Errorf("configured %s default: %w", field, err)
	}
	return parsed, nil
}

func (m *Manager) info(rec *managedWindow) bridge.WindowInfo {
	m.mu.RLock()
	win := rec.window
	m.mu.RUnlock()
	return bridge.WindowInfo{
		Handle: rec.handle,
		ID:     uint32(win.ID),
		PID:    win.PID,
		AppID:  win.AppID,
		Title:  win.Title,
		Bounds: win.Bounds,
	}
}

// windowEvent is the payload for window.* events.
type windowEvent struct {
	Handle string        `json:"handle"`
	ID     uint32        `json:"id"`
	PID    int           `json:"pid,omitempty"`
	Title  string        `json:"title,omitempty"`
	Bounds geometry.Rect `json:"bounds"`
}

// settingEvent is the payload for settings.changed.
type settingEvent struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
}

func (m *Manager) publish(name string, data any) {
	if m.hub == nil {
		return
	}
	m.hub.Publish(name, data)
}
