package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/casement-dev/casement/internal/bridge"
	"github.com/casement-dev/casement/internal/display"
	"github.com/casement-dev/casement/internal/geometry"
)

const (
	ServerName    = "casement"
	ServerVersion = "0.1.0"
)

// Server exposes the daemon's bridge operations as MCP tools over stdio.
// Every tool is a thin proxy; the daemon stays the single authority.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *bridge.Client
}

// NewServer creates an MCP server talking to the daemon through client.
func NewServer(client *bridge.Client) *Server {
	s := &Server{client: client}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done. The
// daemon is pinged first so a missing daemon fails loudly instead of on
// the first tool call.
func (s *Server) Run(ctx context.Context) error {
	if err := s.client.Ping(); err != nil {
		return err
	}
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the active displays with their identifiers and work areas. Work areas exclude panels and docks.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows the daemon manages, with their handles, titles and current bounds.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_window",
		Description: "Launch a program and place its window. Geometry falls back to the daemon's configured defaults; sizes take pixels or percentages, positions also take center, min and max. Returns the managed window with its handle.",
	}, s.handleOpenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Ask a managed window to close gracefully. The application decides when to exit; the window disappears from list_windows once it does.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "place_window",
		Description: "Move and resize a managed window. Geometry falls back to the daemon's configured defaults; sizes take pixels or percentages, positions also take center, min and max.",
	}, s.handlePlaceWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "call_route",
		Description: "Dispatch a raw route against the daemon, including application-registered routes not covered by the other tools. GET /routes lists what is available.",
	}, s.handleCallRoute)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_setting",
		Description: "Read one value from the daemon's flat settings store.",
	}, s.handleGetSetting)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_setting",
		Description: "Write one value to the daemon's flat settings store, or delete it by passing an empty or null value. Subscribers see a settings.changed event.",
	}, s.handleSetSetting)
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	displays, err := s.client.Displays()
	if err != nil {
		return nil, ListDisplaysOutput{}, err
	}
	return nil, ListDisplaysOutput{Displays: displays}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.client.Windows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	return nil, ListWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleOpenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenWindowInput) (*mcpsdk.CallToolResult, OpenWindowOutput, error) {
	if strings.TrimSpace(args.Command) == "" {
		return nil, OpenWindowOutput{}, fmt.Errorf("command is required")
	}

	req := bridge.OpenRequest{
		Command: args.Command,
		Args:    args.Args,
		Padding: args.Padding,
	}
	if args.Display != "" {
		req.Display = display.Preference{args.Display}
	}
	var err error
	if req.Width, req.Height, req.X, req.Y, err = placementValues(args.Width, args.Height, args.X, args.Y); err != nil {
		return nil, OpenWindowOutput{}, err
	}

	info, err := s.client.Open(req)
	if err != nil {
		return nil, OpenWindowOutput{}, err
	}
	return nil, OpenWindowOutput{Window: *info}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseWindowInput) (*mcpsdk.CallToolResult, CloseWindowOutput, error) {
	if err := s.client.CloseWindow(args.Handle); err != nil {
		return nil, CloseWindowOutput{}, err
	}
	return nil, CloseWindowOutput{Requested: true}, nil
}

func (s *Server) handlePlaceWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args PlaceWindowInput) (*mcpsdk.CallToolResult, PlaceWindowOutput, error) {
	if args.Handle == "" {
		return nil, PlaceWindowOutput{}, fmt.Errorf("handle is required")
	}

	req := bridge.PlaceRequest{Padding: args.Padding}
	if args.Display != "" {
		req.Display = display.Preference{args.Display}
	}
	var err error
	if req.Width, req.Height, req.X, req.Y, err = placementValues(args.Width, args.Height, args.X, args.Y); err != nil {
		return nil, PlaceWindowOutput{}, err
	}

	info, err := s.client.Place(args.Handle, req)
	if err != nil {
		return nil, PlaceWindowOutput{}, err
	}
	return nil, PlaceWindowOutput{Window: *info}, nil
}

func (s *Server) handleCallRoute(_ context.Context, _ *mcpsdk.CallToolRequest, args CallRouteInput) (*mcpsdk.CallToolResult, CallRouteOutput, error) {
	method := strings.ToUpper(strings.TrimSpace(args.Method))
	if method != "GET" && method != "POST" {
		return nil, CallRouteOutput{}, fmt.Errorf("method must be GET or POST, got %q", args.Method)
	}
	if !strings.HasPrefix(args.Path, "/") {
		return nil, CallRouteOutput{}, fmt.Errorf("path must start with /, got %q", args.Path)
	}

	var body any
	if trimmed := strings.TrimSpace(args.Body); trimmed != "" {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil, CallRouteOutput{}, fmt.Errorf("body is not valid JSON: %w", err)
		}
		body = decoded
	}

	result, err := s.client.Call(args.Scope, method, args.Path, body)
	if err != nil {
		return nil, CallRouteOutput{}, err
	}
	return nil, CallRouteOutput{Result: string(result)}, nil
}

func (s *Server) handleGetSetting(_ context.Context, _ *mcpsdk.CallToolRequest, args GetSettingInput) (*mcpsdk.CallToolResult, GetSettingOutput, error) {
	raw, err := s.client.GetSetting(args.Key)
	if err != nil {
		return nil, GetSettingOutput{}, err
	}
	return nil, GetSettingOutput{Key: args.Key, Value: string(raw)}, nil
}

func (s *Server) handleSetSetting(_ context.Context, _ *mcpsdk.CallToolRequest, args SetSettingInput) (*mcpsdk.CallToolResult, SetSettingOutput, error) {
	trimmed := strings.TrimSpace(args.Value)
	if trimmed == "" || trimmed == "null" {
		if err := s.client.DeleteSetting(args.Key); err != nil {
			return nil, SetSettingOutput{}, err
		}
		return nil, SetSettingOutput{Key: args.Key, Deleted: true}, nil
	}

	if err := s.client.SetSetting(args.Key, coerceSettingValue(trimmed)); err != nil {
		return nil, SetSettingOutput{}, err
	}
	return nil, SetSettingOutput{Key: args.Key}, nil
}

// coerceSettingValue interprets raw as JSON when it parses, and as a plain
// string otherwise, so callers can write both 42 and dark without quoting
// gymnastics.
func coerceSettingValue(raw string) any {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return decoded
	}
	return raw
}

// placementValues parses the optional geometry strings of a tool call.
func placementValues(width, height, x, y string) (w, h, xv, yv *geometry.Value, err error) {
	parse := func(field, raw string) (*geometry.Value, error) {
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		v, err := geometry.ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return &v, nil
	}

	if w, err = parse("width", width); err != nil {
		return nil, nil, nil, nil, err
	}
	if h, err = parse("height", height); err != nil {
		return nil, nil, nil, nil, err
	}
	if xv, err = parse("x", x); err != nil {
		return nil, nil, nil, nil, err
	}
	if yv, err = parse("y", y); err != nil {
		return nil, nil, nil, nil, err
	}
	return w, h, xv, yv, nil
}
