package wm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/casement-dev/casement/internal/audit"
	"github.com/casement-dev/casement/internal/bridge"
	"github.com/casement-dev/casement/internal/display"
	"github.com/casement-dev/casement/internal/events"
	"github.com/casement-dev/casement/internal/host"
	"github.com/casement-dev/casement/internal/route"
)

func (m *Manager) registerGlobalRoutes() error {
	type registration struct {
		method  route.Method
		pattern string
		handler route.Handler
	}
	regs := []registration{
		{route.GET, "/ping", m.handlePing},
		{route.GET, "/status", m.handleStatus},
		{route.GET, "/displays", m.handleDisplays},
		{route.POST, "/displays/select", m.handleSelectDisplay},
		{route.GET, "/windows", m.handleWindows},
		{route.POST, "/windows/open", m.handleOpen},
		{route.GET, "/window/:handle", m.handleWindow},
		{route.POST, "/window/:handle/close", m.handleCloseWindow},
		{route.POST, "/window/:handle/place", m.handlePlaceWindow},
		{route.POST, "/window/:handle/raise", m.handleRaiseWindow},
		{route.GET, "/routes", m.handleRoutes},
		{route.GET, "/settings", m.handleSettingsAll},
		{route.GET, "/settings/:key", m.handleGetSetting},
		{route.POST, "/settings/:key", m.handleSetSetting},
		{route.POST, "/reload", m.handleReload},
	}
	for _, r := range regs {
		if err := m.global.Handle(r.method, r.pattern, r.handler); err != nil {
			return fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

// registerWindowRoutes installs the built-in per-window routes. Handlers
// close over the handle and resolve the record at dispatch time, so a table
// outliving its window fails with a lookup error rather than acting on a
// stale record.
func (m *Manager) registerWindowRoutes(t *route.Table, handle string) error {
	type registration struct {
		method  route.Method
		pattern string
		handler route.Handler
	}
	regs := []registration{
		{route.GET, "/info", func(ctx context.Context, req *route.Request) (any, error) {
			return m.Describe(handle)
		}},
		{route.POST, "/close", func(ctx context.Context, req *route.Request) (any, error) {
			return nil, m.Close(handle)
		}},
		{route.POST, "/place", func(ctx context.Context, req *route.Request) (any, error) {
			var preq bridge.PlaceRequest
			if len(req.Body) > 0 {
				if err := json.Unmarshal(req.Body, &preq); err != nil {
					return nil, fmt.Errorf("invalid place request: %w", err)
				}
			}
			return m.Place(handle, preq)
		}},
		{route.POST, "/raise", func(ctx context.Context, req *route.Request) (any, error) {
			return nil, m.Raise(handle)
		}},
	}
	for _, r := range regs {
		if err := t.Handle(r.method, r.pattern, r.handler); err != nil {
			return fmt.Errorf("register window %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

func (m *Manager) handlePing(ctx context.Context, req *route.Request) (any, error) {
	return "pong", nil
}

func (m *Manager) handleStatus(ctx context.Context, req *route.Request) (any, error) {
	displayCount := 0
	if displays, err := m.backend.Displays(); err == nil {
		displayCount = len(displays)
	}
	return bridge.StatusInfo{
		Version:       m.version,
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
		WindowCount:   m.WindowCount(),
		DisplayCount:  displayCount,
		Draining:      m.Draining(),
		DaemonRunning: true,
	}, nil
}

func (m *Manager) handleDisplays(ctx context.Context, req *route.Request) (any, error) {
	displays, err := m.backend.Displays()
	if err != nil {
		return nil, fmt.Errorf("failed to list displays: %w", err)
	}
	out := make([]bridge.DisplayInfo, len(displays))
	for i, d := range displays {
		out[i] = displayInfo(d)
	}
	return out, nil
}

func (m *Manager) handleSelectDisplay(ctx context.Context, req *route.Request) (any, error) {
	var sel bridge.SelectDisplayRequest
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &sel); err != nil {
			return nil, fmt.Errorf("invalid select request: %w", err)
		}
	}
	displays, err := m.backend.Displays()
	if err != nil {
		return nil, fmt.Errorf("failed to list displays: %w", err)
	}
	chosen, err := display.Choose(sel.Display, displays, host.PrimaryID(displays))
	if err != nil {
		return nil, err
	}
	return displayInfo(chosen), nil
}

func (m *Manager) handleWindows(ctx context.Context, req *route.Request) (any, error) {
	return m.List(), nil
}

func (m *Manager) handleWindow(ctx context.Context, req *route.Request) (any, error) {
	return m.Describe(req.Params["handle"])
}

func (m *Manager) handleOpen(ctx context.Context, req *route.Request) (any, error) {
	var oreq bridge.OpenRequest
	if err := json.Unmarshal(req.Body, &oreq); err != nil {
		return nil, fmt.Errorf("invalid open request: %w", err)
	}
	return m.Open(ctx, oreq)
}

func (m *Manager) handleCloseWindow(ctx context.Context, req *route.Request) (any, error) {
	return nil, m.Close(req.Params["handle"])
}

func (m *Manager) handlePlaceWindow(ctx context.Context, req *route.Request) (any, error) {
	var preq bridge.PlaceRequest
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &preq); err != nil {
			return nil, fmt.Errorf("invalid place request: %w", err)
		}
	}
	return m.Place(req.Params["handle"], preq)
}

func (m *Manager) handleRaiseWindow(ctx context.Context, req *route.Request) (any, error) {
	return nil, m.Raise(req.Params["handle"])
}

func (m *Manager) handleRoutes(ctx context.Context, req *route.Request) (any, error) {
	// Window tables all carry the same built-ins; list them off a probe.
	probe := route.NewTable("window", m.logger)
	if err := m.registerWindowRoutes(probe, ""); err != nil {
		return nil, err
	}
	return bridge.RoutesInfo{
		Global: methodStrings(m.global.Routes()),
		Window: methodStrings(probe.Routes()),
	}, nil
}

func methodStrings(in map[route.Method][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for method, patterns := range in {
		out[string(method)] = patterns
	}
	return out
}

func (m *Manager) handleSettingsAll(ctx context.Context, req *route.Request) (any, error) {
	if m.store == nil {
		return nil, fmt.Errorf("settings unavailable")
	}
	return m.store.All(), nil
}

func (m *Manager) handleGetSetting(ctx context.Context, req *route.Request) (any, error) {
	if m.store == nil {
		return nil, fmt.Errorf("settings unavailable")
	}
	key := req.Params["key"]
	value, ok := m.store.Get(key)
	if !ok {
		return nil, fmt.Errorf("setting %q is not set", key)
	}
	return value, nil
}

func (m *Manager) handleSetSetting(ctx context.Context, req *route.Request) (any, error) {
	if m.store == nil {
		return nil, fmt.Errorf("settings unavailable")
	}
	key := req.Params["key"]

	body := bytes.TrimSpace(req.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		if err := m.store.Delete(key); err != nil {
			return nil, err
		}
		m.publish(events.SettingsChanged, settingEvent{Key: key, Deleted: true})
		m.audit.Log(audit.ActionSetting, "", map[string]interface{}{"key": key, "deleted": true})
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, fmt.Errorf("invalid setting value: %w", err)
	}
	if err := m.store.Set(key, value); err != nil {
		return nil, err
	}
	m.publish(events.SettingsChanged, settingEvent{Key: key})
	m.audit.Log(audit.ActionSetting, "", map[string]interface{}{"key": key})
	return nil, nil
}

func (m *Manager) handleReload(ctx context.Context, req *route.Request) (any, error) {
	if m.reloadCh == nil {
		return nil, fmt.Errorf("reload unavailable")
	}
	// Notify the daemon loop (non-blocking).
	select {
	case m.reloadCh <- struct{}{}:
	default:
	}
	return nil, nil
}

func displayInfo(d host.Display) bridge.DisplayInfo {
	return bridge.DisplayInfo{
		ID:      d.ID,
		Label:   d.Label,
		Primary: d.Primary,
		Work:    d.Work,
	}
}
