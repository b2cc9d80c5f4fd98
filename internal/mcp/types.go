package mcp

import (
	"github.com/casement-dev/casement/internal/bridge"
)

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct{}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []bridge.DisplayInfo `json:"displays"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []bridge.WindowInfo `json:"windows"`
}

// OpenWindowInput is the input for the open_window tool.
type OpenWindowInput struct {
	Command string   `json:"command" jsonschema:"required,Program to launch"`
	Args    []string `json:"args,omitempty" jsonschema:"Arguments passed to the program"`
	Display string   `json:"display,omitempty" jsonschema:"Display preference: primary, left, right, or an output name like DP-1"`
	Width   string   `json:"width,omitempty" jsonschema:"Window width as pixels (960) or a percentage of the display (50%)"`
	Height  string   `json:"height,omitempty" jsonschema:"Window height as pixels or a percentage of the display"`
	X       string   `json:"x,omitempty" jsonschema:"Horizontal position: pixels, a percentage of the leftover space, center, min, or max"`
	Y       string   `json:"y,omitempty" jsonschema:"Vertical position: pixels, a percentage of the leftover space, center, min, or max"`
	Padding *int     `json:"padding,omitempty" jsonschema:"Pixels kept free between the window and the display edges"`
}

// OpenWindowOutput is the output for the open_window tool.
type OpenWindowOutput struct {
	Window bridge.WindowInfo `json:"window"`
}

// CloseWindowInput is the input for the close_window tool.
type CloseWindowInput struct {
	Handle string `json:"handle" jsonschema:"required,Window handle from open_window or list_windows"`
}

// CloseWindowOutput is the output for the close_window tool.
type CloseWindowOutput struct {
	Requested bool `json:"requested"`
}

// PlaceWindowInput is the input for the place_window tool.
type PlaceWindowInput struct {
	Handle  string `json:"handle" jsonschema:"required,Window handle from open_window or list_windows"`
	Display string `json:"display,omitempty" jsonschema:"Display preference: primary, left, right, or an output name like DP-1"`
	Width   string `json:"width,omitempty" jsonschema:"Window width as pixels or a percentage of the display"`
	Height  string `json:"height,omitempty" jsonschema:"Window height as pixels or a percentage of the display"`
	X       string `json:"x,omitempty" jsonschema:"Horizontal position: pixels, a percentage of the leftover space, center, min, or max"`
	Y       string `json:"y,omitempty" jsonschema:"Vertical position: pixels, a percentage of the leftover space, center, min, or max"`
	Padding *int   `json:"padding,omitempty" jsonschema:"Pixels kept free between the window and the display edges"`
}

// PlaceWindowOutput is the output for the place_window tool.
type PlaceWindowOutput struct {
	Window bridge.WindowInfo `json:"window"`
}

// CallRouteInput is the input for the call_route tool.
type CallRouteInput struct {
	Scope  string `json:"scope,omitempty" jsonschema:"Window handle to dispatch against; leave empty for the global table"`
	Method string `json:"method" jsonschema:"required,GET or POST"`
	Path   string `json:"path" jsonschema:"required,Route path such as /status or /settings/editor"`
	Body   string `json:"body,omitempty" jsonschema:"Request body as JSON text, if the route takes one"`
}

// CallRouteOutput is the output for the call_route tool.
type CallRouteOutput struct {
	Result string `json:"result,omitempty" jsonschema:"Route result as JSON text"`
}

// GetSettingInput is the input for the get_setting tool.
type GetSettingInput struct {
	Key string `json:"key" jsonschema:"required,Setting key, dotted paths allowed (ui.theme)"`
}

// GetSettingOutput is the output for the get_setting tool.
type GetSettingOutput struct {
	Key   string `json:"key"`
	Value string `json:"value" jsonschema:"Setting value as JSON text"`
}

// SetSettingInput is the input for the set_setting tool.
type SetSettingInput struct {
	Key   string `json:"key" jsonschema:"required,Setting key, dotted paths allowed (ui.theme)"`
	Value string `json:"value" jsonschema:"Value to store. JSON text is stored as its decoded value; anything else is stored as a plain string. Empty or null deletes the key."`
}

// SetSettingOutput is the output for the set_setting tool.
type SetSettingOutput struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
}
