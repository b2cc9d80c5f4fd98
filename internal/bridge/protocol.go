package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/casement-dev/casement/internal/display"
	"github.com/casement-dev/casement/internal/geometry"
)

// CommandType represents different bridge command types
type CommandType string

const (
	CommandCall        CommandType = "CALL"
	CommandSubscribe   CommandType = "SUBSCRIBE"
	CommandUnsubscribe CommandType = "UNSUBSCRIBE"
)

// Request represents a bridge request from client to server
type Request struct {
	ID      int64           `json:"id,omitempty"`
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CallPayload names a routed operation. An empty scope targets the global
// table; otherwise scope is a window handle.
type CallPayload struct {
	Scope  string          `json:"scope,omitempty"`
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// SubscribePayload lists the event topics a connection wants. An empty list
// subscribes to everything.
type SubscribePayload struct {
	Topics []string `json:"topics,omitempty"`
}

// Reply answers one request. ID echoes the request that produced it.
type Reply struct {
	Type   string          `json:"type"` // "reply"
	ID     int64           `json:"id,omitempty"`
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// EventFrame carries one published event to a subscribed connection.
type EventFrame struct {
	Type  string          `json:"type"` // "event"
	Event string          `json:"event"`
	Time  time.Time       `json:"time"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Frame is the union read by clients: a reply or an event, discriminated by
// the type field.
type Frame struct {
	Type   string          `json:"type"`
	ID     int64           `json:"id,omitempty"`
	Status string          `json:"status,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Event  string          `json:"event,omitempty"`
	Time   time.Time       `json:"time,omitempty"`
}

const (
	FrameReply = "reply"
	FrameEvent = "event"

	StatusOK    = "OK"
	StatusError = "ERROR"
)

// StatusInfo represents the data returned by GET /status
type StatusInfo struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	WindowCount   int    `json:"window_count"`
	DisplayCount  int    `json:"display_count"`
	Draining      bool   `json:"draining"`
	DaemonRunning bool   `json:"daemon_running"`
}

// DisplayInfo describes one output and its usable work area.
type DisplayInfo struct {
	ID      string        `json:"id"`
	Label   string        `json:"label,omitempty"`
	Primary bool          `json:"primary"`
	Work    geometry.Rect `json:"work"`
}

// WindowInfo describes one managed window.
type WindowInfo struct {
	Handle string        `json:"handle"`
	ID     uint32        `json:"id"`
	PID    int           `json:"pid,omitempty"`
	AppID  string        `json:"app_id,omitempty"`
	Title  string        `json:"title,omitempty"`
	Bounds geometry.Rect `json:"bounds"`
}

// RoutesInfo lists registered route patterns for discovery.
type RoutesInfo struct {
	Global map[string][]string `json:"global"`
	Window map[string][]string `json:"window"`
}

// OpenRequest launches a command and places the window it maps. Unset
// geometry fields fall back to the configured placement defaults.
type OpenRequest struct {
	Command string             `json:"command"`
	Args    []string           `json:"args,omitempty"`
	Display display.Preference `json:"display,omitempty"`
	Width   *geometry.Value    `json:"width,omitempty"`
	Height  *geometry.Value    `json:"height,omitempty"`
	X       *geometry.Value    `json:"x,omitempty"`
	Y       *geometry.Value    `json:"y,omitempty"`
	Padding *int               `json:"padding,omitempty"`
}

// PlaceRequest re-places an already managed window.
type PlaceRequest struct {
	Display display.Preference `json:"display,omitempty"`
	Width   *geometry.Value    `json:"width,omitempty"`
	Height  *geometry.Value    `json:"height,omitempty"`
	X       *geometry.Value    `json:"x,omitempty"`
	Y       *geometry.Value    `json:"y,omitempty"`
	Padding *int               `json:"padding,omitempty"`
}

// SelectDisplayRequest resolves a display preference without acting on it.
type SelectDisplayRequest struct {
	Display display.Preference `json:"display"`
}

// DrainNotice is the short-circuit answer returned while the daemon is
// shutting down.
type DrainNotice struct {
	Draining bool   `json:"draining"`
	Message  string `json:"message"`
}

// NewOKReply creates a successful reply with optional data
func NewOKReply(id int64, data interface{}) (*Reply, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reply data: %w", err)
		}
		dataBytes = bytes
	}

	return &Reply{
		Type:   FrameReply,
		ID:     id,
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorReply creates an error reply with a message and optional detail
func NewErrorReply(id int64, errMsg string, detail interface{}) *Reply {
	var dataBytes json.RawMessage
	if detail != nil {
		if bytes, err := json.Marshal(detail); err == nil {
			dataBytes = bytes
		}
	}
	return &Reply{
		Type:   FrameReply,
		ID:     id,
		Status: StatusError,
		Data:   dataBytes,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a reply to newline-terminated JSON bytes
func (r *Reply) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
