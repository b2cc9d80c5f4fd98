package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/casement-dev/casement/internal/bridge"
	"github.com/casement-dev/casement/internal/display"
	"github.com/casement-dev/casement/internal/geometry"
)

// placementFlags is the shared geometry flag group for open and place.
type placementFlags struct {
	display string
	width   string
	height  string
	x       string
	y       string
	padding int
}

func addPlacementFlags(fs *flag.FlagSet, pf *placementFlags) {
	fs.StringVar(&pf.display, "display", "", "Target display (name, primary, left, right; comma-separated preferences)")
	fs.StringVar(&pf.width, "width", "", "Window width (pixels or N%)")
	fs.StringVar(&pf.height, "height", "", "Window height (pixels or N%)")
	fs.StringVar(&pf.x, "x", "", "Horizontal position (pixels, N%, center, min, max)")
	fs.StringVar(&pf.y, "y", "", "Vertical position (pixels, N%, center, min, max)")
	fs.IntVar(&pf.padding, "padding", -1, "Pixel margin kept on every display edge")
}

func (pf placementFlags) preference() display.Preference {
	if pf.display == "" {
		return nil
	}
	parts := strings.Split(pf.display, ",")
	pref := make(display.Preference, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			pref = append(pref, p)
		}
	}
	return pref
}

func (pf placementFlags) values() (w, h, x, y *geometry.Value, err error) {
	if w, err = valueFlag(pf.width, "width"); err != nil {
		return
	}
	if h, err = valueFlag(pf.height, "height"); err != nil {
		return
	}
	if x, err = valueFlag(pf.x, "x"); err != nil {
		return
	}
	y, err = valueFlag(pf.y, "y")
	return
}

func (pf placementFlags) openRequest(command string, cmdArgs []string) (bridge.OpenRequest, error) {
	w, h, x, y, err := pf.values()
	if err != nil {
		return bridge.OpenRequest{}, err
	}
	req := bridge.OpenRequest{
		Command: command,
		Args:    cmdArgs,
		Display: pf.preference(),
		Width:   w,
		Height:  h,
		X:       x,
		Y:       y,
	}
	if pf.padding >= 0 {
		padding := pf.padding
		req.Padding = &padding
	}
	return req, nil
}

func (pf placementFlags) placeRequest() (bridge.PlaceRequest, error) {
	w, h, x, y, err := pf.values()
	if err != nil {
		return bridge.PlaceRequest{}, err
	}
	req := bridge.PlaceRequest{
		Display: pf.preference(),
		Width:   w,
		Height:  h,
		X:       x,
		Y:       y,
	}
	if pf.padding >= 0 {
		padding := pf.padding
		req.Padding = &padding
	}
	return req, nil
}

func valueFlag(raw, field string) (*geometry.Value, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := geometry.ParseValue(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &v, nil
}

func printWindow(info *bridge.WindowInfo) {
	fmt.Printf("handle: %s\n", info.Handle)
	fmt.Printf("window: 0x%x\n", info.ID)
	if info.PID != 0 {
		fmt.Printf("pid:    %d\n", info.PID)
	}
	if info.AppID != "" {
		fmt.Printf("app:    %s\n", info.AppID)
	}
	if info.Title != "" {
		fmt.Printf("title:  %s\n", info.Title)
	}
	fmt.Printf("bounds: %s\n", info.Bounds)
}

func runDisplays(args []string) int {
	fs := flag.NewFlagSet("displays", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement displays [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List connected displays and their work areas. The primary display")
		fmt.Fprintln(os.Stderr, "is marked with *.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "displays takes no arguments")
		fs.Usage()
		return 2
	}

	client := bridge.NewClient()
	displays, err := client.Displays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		return encodeJSON(displays)
	}
	for _, d := range displays {
		marker := " "
		if d.Primary {
			marker = "*"
		}
		fmt.Printf("%s %-12s %s\n", marker, d.ID, d.Work)
	}
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement windows [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List managed windows in open order.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	client := bridge.NewClient()
	windows, err := client.Windows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		return encodeJSON(windows)
	}
	for _, w := range windows {
		fmt.Printf("%s  %-14s %-18s %s\n", w.Handle, w.AppID, w.Bounds, w.Title)
	}
	return 0
}

func runOpen(args []string) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var pf placementFlags
	addPlacementFlags(fs, &pf)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement open [options] <command> [args...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Launch a command, wait for its window and place it. Unset geometry")
		fmt.Fprintln(os.Stderr, "falls back to the configured placement defaults.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "open requires <command>")
		fs.Usage()
		return 2
	}

	req, err := pf.openRequest(fs.Arg(0), fs.Args()[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client := bridge.NewClient()
	info, err := client.Open(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printWindow(info)
	return 0
}

func runClose(args []string) int {
	fs := flag.NewFlagSet("close", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement close <handle>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask a managed window to close. The window stays managed until the")
		fmt.Fprintln(os.Stderr, "daemon observes it gone.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "close requires exactly <handle>")
		fs.Usage()
		return 2
	}

	client := bridge.NewClient()
	if err := client.CloseWindow(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runPlace(args []string) int {
	fs := flag.NewFlagSet("place", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var pf placementFlags
	addPlacementFlags(fs, &pf)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement place [options] <handle>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Re-place an already managed window. Unset geometry falls back to")
		fmt.Fprintln(os.Stderr, "the configured placement defaults.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "place requires exactly <handle>")
		fs.Usage()
		return 2
	}

	req, err := pf.placeRequest()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client := bridge.NewClient()
	info, err := client.Place(fs.Arg(0), req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printWindow(info)
	return 0
}

func encodeJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
