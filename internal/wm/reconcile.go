package wm

import (
	"context"
	"time"

	"github.com/casement-dev/casement/internal/events"
	"github.com/casement-dev/casement/internal/host"
)

// RunReconciler starts the reconciliation loop. Blocks until the context
// is cancelled. The loop is the sole authority on window disappearance:
// a close request only asks the application to exit, and the registry
// entry survives until a pass observes the window gone.
func (m *Manager) RunReconciler(ctx context.Context) {
	interval := m.Config().Spawn.ReconcileInterval()
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("reconciler started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			m.reconcile()
		}
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (m *Manager) ReconcileNow() {
	m.reconcile()
}

// reconcile performs a single pass: compare the registry against the
// backend's window list, drop entries whose window is gone, and refresh
// bounds and titles for the rest.
func (m *Manager) reconcile() {
	// Recover from panics to prevent crashing the daemon.
	defer func() {
		if err := recover(); err != nil {
			m.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	type tracked struct {
		rec  *managedWindow
		last host.Window
	}

	m.mu.RLock()
	snapshot := make([]tracked, 0, len(m.windows))
	for _, rec := range m.windows {
		snapshot = append(snapshot, tracked{rec: rec, last: rec.window})
	}
	m.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	wins, err := m.backend.Windows()
	if err != nil {
		m.logger.Error("reconciler: failed to list windows", "error", err)
		return
	}
	actual := make(map[host.WindowID]host.Window, len(wins))
	for _, w := range wins {
		actual[w.ID] = w
	}

	for _, t := range snapshot {
		cur, ok := actual[t.last.ID]
		if !ok {
			m.unregister(t.rec)
			m.logger.Info("window gone",
				"handle", t.rec.handle,
				"window", t.last.ID)
			m.publish(events.WindowClosed, windowEvent{
				Handle: t.rec.handle,
				ID:     uint32(t.last.ID),
				PID:    t.last.PID,
				Title:  t.last.Title,
				Bounds: t.last.Bounds,
			})
			continue
		}

		moved := cur.Bounds != t.last.Bounds
		if moved || cur.Title != t.last.Title || cur.PID != t.last.PID {
			m.mu.Lock()
			t.rec.window.Bounds = cur.Bounds
			t.rec.window.Title = cur.Title
			if cur.PID != 0 {
				t.rec.window.PID = cur.PID
			}
			m.mu.Unlock()
		}
		if moved {
			m.publish(events.WindowMoved, windowEvent{
				Handle: t.rec.handle,
				ID:     uint32(cur.ID),
				Bounds: cur.Bounds,
			})
		}
	}
}
