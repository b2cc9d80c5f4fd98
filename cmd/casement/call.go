package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tidwall/pretty"

	"github.com/casement-dev/casement/internal/bridge"
)

func runCall(args []string) int {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	scope := fs.String("scope", "", "Window handle for window-scoped routes (default: global)")
	body := fs.String("body", "", "JSON request body")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement call [--scope HANDLE] [--body JSON] <method> <path>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Dispatch a raw route call and print the reply. Window scopes fall")
		fmt.Fprintln(os.Stderr, "back to the global table for paths the window does not answer.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  casement call GET /status")
		fmt.Fprintln(os.Stderr, "  casement call --scope <handle> GET /info")
		fmt.Fprintln(os.Stderr, "  casement call --body '{\"width\":{\"kind\":\"px\",\"amount\":800}}' POST /window/<handle>/place")
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
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "call requires <method> <path>")
		fs.Usage()
		return 2
	}

	method := strings.ToUpper(fs.Arg(0))
	if method != "GET" && method != "POST" {
		fmt.Fprintf(os.Stderr, "unsupported method %q (use GET or POST)\n", fs.Arg(0))
		return 2
	}
	path := fs.Arg(1)
	if !strings.HasPrefix(path, "/") {
		fmt.Fprintf(os.Stderr, "path %q must start with /\n", path)
		return 2
	}

	var payload any
	if *body != "" {
		if err := json.Unmarshal([]byte(*body), &payload); err != nil {
			fmt.Fprintf(os.Stderr, "invalid --body: %v\n", err)
			return 2
		}
	}

	client := bridge.NewClient()
	raw, err := client.Call(*scope, method, path, payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(raw) > 0 {
		os.Stdout.Write(pretty.Pretty(raw))
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement watch [topic ...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Stream daemon events until interrupted. Topics filter by name and")
		fmt.Fprintln(os.Stderr, "a trailing * matches by prefix; no topics means everything.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  casement watch")
		fmt.Fprintln(os.Stderr, "  casement watch 'window.*'")
		fmt.Fprintln(os.Stderr, "  casement watch window.closed settings.changed")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := bridge.NewClient()
	ch, err := client.Subscribe(ctx, fs.Args()...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	for rec := range ch {
		data := ""
		if len(rec.Data) > 0 {
			data = string(pretty.Ugly(rec.Data))
		}
		fmt.Printf("%s  %-18s %s\n", rec.Time.Format(time.RFC3339), rec.Event, data)
	}
	return 0
}
