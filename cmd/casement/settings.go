package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/casement-dev/casement/internal/bridge"
)

func printSettingsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  casement settings list")
	fmt.Fprintln(w, "  casement settings get <key>")
	fmt.Fprintln(w, "  casement settings set <key> <value>")
	fmt.Fprintln(w, "  casement settings del <key>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Keys use dotted paths (editor.font). Values parse as JSON when they")
	fmt.Fprintln(w, "can, and store as plain strings otherwise.")
}

func runSettings(args []string) int {
	if len(args) == 0 {
		printSettingsUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printSettingsUsage(os.Stdout)
		return 0
	}

	client := bridge.NewClient()

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: casement settings list")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Print every stored setting as a JSON document.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "settings list takes no arguments")
			fs.Usage()
			return 2
		}

		all, err := client.Settings()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		raw, err := json.Marshal(all)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		os.Stdout.Write(pretty.Pretty(raw))
		return 0

	case "get":
		fs := flag.NewFlagSet("get", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: casement settings get <key>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "settings get requires exactly <key>")
			fs.Usage()
			return 2
		}

		raw, err := client.GetSetting(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		os.Stdout.Write(pretty.Pretty(raw))
		return 0

	case "set":
		fs := flag.NewFlagSet("set", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: casement settings set <key> <value>")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "The value parses as JSON when it can (42, true, {\"a\":1}) and")
			fmt.Fprintln(os.Stderr, "stores as a plain string otherwise.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "settings set requires <key> <value>")
			fs.Usage()
			return 2
		}

		if err := client.SetSetting(fs.Arg(0), coerceValue(fs.Arg(1))); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "del":
		fs := flag.NewFlagSet("del", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: casement settings del <key>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "settings del requires exactly <key>")
			fs.Usage()
			return 2
		}

		if err := client.DeleteSetting(fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown settings command: %s\n\n", args[0])
		printSettingsUsage(os.Stderr)
		return 2
	}
}

// coerceValue interprets a CLI value argument as JSON when it parses, and
// as a plain string otherwise.
func coerceValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return decoded
	}
	return raw
}
