package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/casement-dev/casement/internal/display"
	"github.com/casement-dev/casement/internal/runtimepath"
)

// Client talks to the daemon over the bridge socket. Calls open a fresh
// connection each; Subscribe holds one open for the event stream.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a bridge client against the standard socket path.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; Call surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// NewClientWithPath creates a client against an explicit socket path.
func NewClientWithPath(path string) *Client {
	return &Client{
		socketPath: path,
		timeout:    5 * time.Second,
	}
}

// Call dispatches one routed operation and returns the reply data. An empty
// scope targets the global table; otherwise scope is a window handle.
func (c *Client) Call(scope, method, path string, body any) (json.RawMessage, error) {
	var bodyRaw json.RawMessage
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal call body: %w", err)
		}
		bodyRaw = data
	}

	payload, err := json.Marshal(CallPayload{
		Scope:  scope,
		Method: method,
		Path:   path,
		Body:   bodyRaw,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal call payload: %w", err)
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(Request{ID: 1, Command: CommandCall, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read reply: %w", err)
		}

		var frame Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			return nil, fmt.Errorf("failed to parse reply: %w", err)
		}
		if frame.Type != FrameReply {
			continue
		}
		if frame.Status == StatusError {
			return nil, fmt.Errorf("daemon error: %s", frame.Error)
		}
		return frame.Data, nil
	}
}

func (c *Client) callInto(scope, method, path string, body any, out any) error {
	data, err := c.Call(scope, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse reply data: %w", err)
	}
	return nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.Call("", "GET", "/ping", nil)
	return err
}

// Status retrieves daemon status
func (c *Client) Status() (*StatusInfo, error) {
	var status StatusInfo
	if err := c.callInto("", "GET", "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Displays retrieves all connected displays
func (c *Client) Displays() ([]DisplayInfo, error) {
	var displays []DisplayInfo
	if err := c.callInto("", "GET", "/displays", nil, &displays); err != nil {
		return nil, err
	}
	return displays, nil
}

// SelectDisplay resolves a display preference without acting on it
func (c *Client) SelectDisplay(pref display.Preference) (*DisplayInfo, error) {
	var info DisplayInfo
	if err := c.callInto("", "POST", "/displays/select", SelectDisplayRequest{Display: pref}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Windows retrieves all managed windows
func (c *Client) Windows() ([]WindowInfo, error) {
	var windows []WindowInfo
	if err := c.callInto("", "GET", "/windows", nil, &windows); err != nil {
		return nil, err
	}
	return windows, nil
}

// Window retrieves one managed window by handle
func (c *Client) Window(handle string) (*WindowInfo, error) {
	var info WindowInfo
	if err := c.callInto("", "GET", "/window/"+handle, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Open launches a command and places its window
func (c *Client) Open(req OpenRequest) (*WindowInfo, error) {
	var info WindowInfo
	if err := c.callInto("", "POST", "/windows/open", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CloseWindow closes a managed window
func (c *Client) CloseWindow(handle string) error {
	_, err := c.Call("", "POST", "/window/"+handle+"/close", nil)
	return err
}

// Place re-places a managed window
func (c *Client) Place(handle string, req PlaceRequest) (*WindowInfo, error) {
	var info WindowInfo
	if err := c.callInto("", "POST", "/window/"+handle+"/place", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Raise activates a managed window
func (c *Client) Raise(handle string) error {
	_, err := c.Call("", "POST", "/window/"+handle+"/raise", nil)
	return err
}

// Routes lists the registered route patterns
func (c *Client) Routes() (*RoutesInfo, error) {
	var info RoutesInfo
	if err := c.callInto("", "GET", "/routes", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Settings retrieves the full settings document
func (c *Client) Settings() (map[string]any, error) {
	var out map[string]any
	if err := c.callInto("", "GET", "/settings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSetting retrieves one settings value by key
func (c *Client) GetSetting(key string) (json.RawMessage, error) {
	return c.Call("", "GET", "/settings/"+key, nil)
}

// SetSetting writes one settings value. A nil value deletes the key.
func (c *Client) SetSetting(key string, value any) error {
	_, err := c.Call("", "POST", "/settings/"+key, value)
	return err
}

// DeleteSetting removes one settings key
func (c *Client) DeleteSetting(key string) error {
	return c.SetSetting(key, nil)
}

// Reload asks the daemon to reload its configuration
func (c *Client) Reload() error {
	_, err := c.Call("", "POST", "/reload", nil)
	return err
}

// EventRecord is one received event.
type EventRecord struct {
	Event string
	Time  time.Time
	Data  json.RawMessage
}

// Subscribe opens a dedicated connection and streams matching events until
// ctx is done or the daemon goes away. The channel closes on either.
func (c *Client) Subscribe(ctx context.Context, topics ...string) (<-chan EventRecord, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}

	payload, err := json.Marshal(SubscribePayload{Topics: topics})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to marshal subscribe payload: %w", err)
	}
	reqData, err := json.Marshal(Request{ID: 1, Command: CommandSubscribe, Payload: payload})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')

	conn.SetDeadline(time.Now().Add(c.timeout))
	if _, err := conn.Write(reqData); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send subscribe: %w", err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read subscribe reply: %w", err)
	}
	var frame Frame
	if err := json.Unmarshal(line, &frame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to parse subscribe reply: %w", err)
	}
	if frame.Status == StatusError {
		conn.Close()
		return nil, fmt.Errorf("daemon error: %s", frame.Error)
	}

	// Streaming from here on; no deadline.
	conn.SetDeadline(time.Time{})

	ch := make(chan EventRecord, 16)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(ch)
		defer conn.Close()
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				return
			}
			var frame Frame
			if err := json.Unmarshal(line, &frame); err != nil {
				continue
			}
			if frame.Type != FrameEvent {
				continue
			}
			select {
			case ch <- EventRecord{Event: frame.Event, Time: frame.Time, Data: frame.Data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
