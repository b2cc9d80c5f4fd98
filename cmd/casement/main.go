package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/casement-dev/casement/internal/audit"
	"github.com/casement-dev/casement/internal/bridge"
	"github.com/casement-dev/casement/internal/config"
	"github.com/casement-dev/casement/internal/events"
	"github.com/casement-dev/casement/internal/runtimepath"
	"github.com/casement-dev/casement/internal/settings"
	"github.com/casement-dev/casement/internal/tui"
	"github.com/casement-dev/casement/internal/wm"
	"github.com/casement-dev/casement/internal/x11"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: casement daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: casement daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "open":
		os.Exit(runOpen(os.Args[2:]))
	case "close":
		os.Exit(runClose(os.Args[2:]))
	case "place":
		os.Exit(runPlace(os.Args[2:]))
	case "call":
		os.Exit(runCall(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "settings":
		os.Exit(runSettings(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "version":
		fmt.Printf("casement %s\n", version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: casement <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the casement daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  displays            List connected displays")
	fmt.Fprintln(w, "  windows             List managed windows")
	fmt.Fprintln(w, "  open                Launch a command and place its window")
	fmt.Fprintln(w, "  close               Ask a managed window to close")
	fmt.Fprintln(w, "  place               Re-place a managed window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  call                Dispatch a raw route call")
	fmt.Fprintln(w, "  watch               Stream daemon events")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  settings list       List stored settings")
	fmt.Fprintln(w, "  settings get        Read one setting")
	fmt.Fprintln(w, "  settings set        Write one setting")
	fmt.Fprintln(w, "  settings del        Delete one setting")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config init         Write a starter config file")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the interactive dashboard")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  version             Print the version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'casement <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status over the bridge socket.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := bridge.NewClient()
	status, err := client.Status()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("version:        %s\n", status.Version)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("window_count:   %d\n", status.WindowCount)
	fmt.Printf("display_count:  %d\n", status.DisplayCount)
	fmt.Printf("draining:       %v\n", status.Draining)
	return 0
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: casement tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive dashboard over the bridge socket.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  tab/shift-tab  Switch tabs")
		fmt.Fprintln(os.Stderr, "  1/2/3          Jump to tab")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓       Navigate lists")
		fmt.Fprintln(os.Stderr, "  Enter          Raise window / edit setting")
		fmt.Fprintln(os.Stderr, "  x              Close window / delete setting")
		fmt.Fprintln(os.Stderr, "  n              New setting")
		fmt.Fprintln(os.Stderr, "  r              Refresh now")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C      Quit")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		fs.Usage()
		return 2
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "tui requires an interactive terminal")
		return 1
	}

	if err := tui.Run(bridge.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))

	settingsPath, err := settings.DefaultPath()
	if err != nil {
		log.Fatalf("Failed to resolve settings path: %v", err)
	}
	store, err := settings.Open(settingsPath)
	if err != nil {
		log.Fatalf("Failed to open settings store: %v", err)
	}

	backend, err := x11.New(x11.Options{Display: cfg.Display, XAuthority: cfg.XAuthority})
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Close()

	auditCfg := cfg.GetAuditConfig()
	auditLogger, err := audit.NewLogger(audit.Config{
		Enabled:   auditCfg.Enabled,
		Level:     audit.ParseLevel(auditCfg.Level),
		FilePath:  auditCfg.File,
		MaxSizeMB: auditCfg.MaxSizeMB,
		MaxFiles:  auditCfg.MaxFiles,
	})
	if err != nil {
		log.Printf("Warning: audit log disabled: %v", err)
		auditLogger = nil
	}
	defer auditLogger.Close()

	hub := events.NewHub()
	reloadCh := make(chan struct{}, 1)

	manager, err := wm.NewManager(wm.ManagerConfig{
		Config:   cfg,
		Backend:  backend,
		Settings: store,
		Hub:      hub,
		Audit:    auditLogger,
		Logger:   logger,
		Version:  version,
		ReloadCh: reloadCh,
	})
	if err != nil {
		log.Fatalf("Failed to create window manager: %v", err)
	}

	socketPath := cfg.Socket
	if socketPath == "" {
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			log.Fatalf("Failed to resolve socket path: %v", err)
		}
	}

	server := bridge.NewServer(socketPath, manager, hub, logger)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start bridge server: %v", err)
	}
	log.Printf("Bridge listening on %s", socketPath)

	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()
	go manager.RunReconciler(reconcilerCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	log.Println("casement daemon started successfully")

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				reloadConfig(manager)

			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down casement daemon...")
				manager.Drain()
				reconcilerCancel()
				server.Stop()
				hub.Close()
				return
			}

		case <-reloadCh:
			// Reload requested over the bridge.
			reloadConfig(manager)
		}
	}
}

func reloadConfig(manager *wm.Manager) {
	newCfg, err := config.Load()
	if err != nil {
		log.Printf("Config reload failed: %v", err)
		return
	}
	manager.UpdateConfig(newCfg)
	log.Println("Config reloaded successfully")
}

func slogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
