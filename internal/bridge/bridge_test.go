package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/casement-dev/casement/internal/events"
	"github.com/casement-dev/casement/internal/route"
)

func TestOutcomeReply_Mapping(t *testing.T) {
	ok := outcomeReply(7, route.GET, "/status", route.Outcome{Value: map[string]int{"n": 1}}, true, nil)
	if ok.Status != StatusOK || ok.ID != 7 {
		t.Fatalf("expected OK reply with id 7, got %+v", ok)
	}
	if !strings.Contains(string(ok.Data), `"n":1`) {
		t.Fatalf("expected data to carry value, got %s", ok.Data)
	}

	notFound := outcomeReply(1, route.POST, "/nope", route.Outcome{}, false, nil)
	if notFound.Status != StatusError || !strings.Contains(notFound.Error, "no route for POST /nope") {
		t.Fatalf("expected no-route error, got %+v", notFound)
	}

	fault := &route.Fault{Scope: "win-1", Route: "/close", Message: "backend gone"}
	faulted := outcomeReply(2, route.POST, "/close", route.Outcome{Fault: fault}, true, nil)
	if faulted.Status != StatusError || faulted.Error != "backend gone" {
		t.Fatalf("expected fault error, got %+v", faulted)
	}
	var decoded route.Fault
	if err := json.Unmarshal(faulted.Data, &decoded); err != nil || decoded.Scope != "win-1" {
		t.Fatalf("expected fault detail in data, got %s (%v)", faulted.Data, err)
	}

	failed := outcomeReply(3, route.GET, "/x", route.Outcome{}, false, fmt.Errorf("unknown window handle"))
	if failed.Status != StatusError || failed.Error != "unknown window handle" {
		t.Fatalf("expected dispatch error, got %+v", failed)
	}
}

func TestParseRequest_Invalid(t *testing.T) {
	if _, err := ParseRequest([]byte("{not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

type scriptedController struct {
	dispatch func(scope string, method route.Method, path string, body json.RawMessage) (route.Outcome, bool, error)
}

func (c *scriptedController) Dispatch(_ context.Context, scope string, method route.Method, path string, body json.RawMessage) (route.Outcome, bool, error) {
	return c.dispatch(scope, method, path, body)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startTestServer(t *testing.T, ctrl Controller, hub *events.Hub) (*Server, *Client) {
	t.Helper()
	dir, err := os.MkdirTemp("", "bridge")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	srv := NewServer(filepath.Join(dir, "test.sock"), ctrl, hub, testLogger())
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(srv.Stop)

	return srv, NewClientWithPath(srv.SocketPath())
}

func TestServer_CallRoundTrip(t *testing.T) {
	ctrl := &scriptedController{
		dispatch: func(scope string, method route.Method, path string, body json.RawMessage) (route.Outcome, bool, error) {
			if scope != "" || method != route.GET || path != "/status" {
				return route.Outcome{}, false, nil
			}
			return route.Outcome{Value: StatusInfo{Version: "test", DaemonRunning: true}}, true, nil
		},
	}
	_, client := startTestServer(t, ctrl, nil)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Version != "test" || !status.DaemonRunning {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestServer_NoRouteError(t *testing.T) {
	ctrl := &scriptedController{
		dispatch: func(string, route.Method, string, json.RawMessage) (route.Outcome, bool, error) {
			return route.Outcome{}, false, nil
		},
	}
	_, client := startTestServer(t, ctrl, nil)

	_, err := client.Call("", "GET", "/missing", nil)
	if err == nil || !strings.Contains(err.Error(), "no route for GET /missing") {
		t.Fatalf("expected no-route error, got %v", err)
	}
}

func TestServer_RejectsUnknownMethod(t *testing.T) {
	ctrl := &scriptedController{
		dispatch: func(string, route.Method, string, json.RawMessage) (route.Outcome, bool, error) {
			t.Error("controller should not be reached")
			return route.Outcome{}, false, nil
		},
	}
	_, client := startTestServer(t, ctrl, nil)

	_, err := client.Call("", "PATCH", "/status", nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported method") {
		t.Fatalf("expected method error, got %v", err)
	}
}

func TestServer_SubscribeDeliversEvents(t *testing.T) {
	hub := events.NewHub()
	defer hub.Close()
	ctrl := &scriptedController{
		dispatch: func(string, route.Method, string, json.RawMessage) (route.Outcome, bool, error) {
			return route.Outcome{}, false, nil
		},
	}
	_, client := startTestServer(t, ctrl, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := client.Subscribe(ctx, "window.*")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hub.Publish("window.opened", map[string]string{"handle": "win-1"})
	hub.Publish("settings.changed", map[string]string{"key": "theme"})
	hub.Publish("window.closed", map[string]string{"handle": "win-1"})

	var got []string
	for len(got) < 2 {
		select {
		case rec, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed early, got %v", got)
			}
			got = append(got, rec.Event)
		case <-ctx.Done():
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[0] != "window.opened" || got[1] != "window.closed" {
		t.Fatalf("expected filtered window events in order, got %v", got)
	}
}

func TestServer_StopClosesClients(t *testing.T) {
	hub := events.NewHub()
	defer hub.Close()
	ctrl := &scriptedController{
		dispatch: func(string, route.Method, string, json.RawMessage) (route.Outcome, bool, error) {
			return route.Outcome{}, false, nil
		},
	}
	srv, client := startTestServer(t, ctrl, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := client.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	srv.Stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel after server stop")
		}
	case <-ctx.Done():
		t.Fatal("channel not closed after server stop")
	}

	if _, err := os.Stat(srv.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed, got %v", err)
	}
}
