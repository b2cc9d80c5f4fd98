package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/casement-dev/casement/internal/route"
)

// Level defines the audit verbosity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Action represents the kind of manager activity being recorded.
type Action string

const (
	ActionDispatch Action = "DISPATCH"
	ActionOpen     Action = "OPEN-WINDOW"
	ActionClose    Action = "CLOSE-WINDOW"
	ActionPlace    Action = "PLACE-WINDOW"
	ActionSetting  Action = "SETTING"
	ActionDrain    Action = "DRAIN"
)

// actionLevel returns the level an action is recorded at.
func actionLevel(action Action) Level {
	switch action {
	case ActionDispatch:
		return LevelDebug
	case ActionOpen, ActionClose, ActionPlace, ActionSetting:
		return LevelInfo
	case ActionDrain:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// Config holds configuration for the audit trail.
type Config struct {
	Enabled   bool
	Level     Level
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

// Logger records manager activity to a file with size-based rotation.
type Logger struct {
	mu          sync.Mutex
	file        *os.File
	config      Config
	currentSize int64
}

// NewLogger creates a new audit logger with the given configuration.
func NewLogger(cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{config: cfg}, nil
	}

	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file %s: %w", cfg.FilePath, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat audit file: %w", err)
	}

	return &Logger{
		file:        f,
		config:      cfg,
		currentSize: stat.Size(),
	}, nil
}

// Log records one manager action to the audit file.
func (l *Logger) Log(action Action, scope string, details map[string]interface{}) {
	if l == nil || !l.config.Enabled {
		return
	}

	if actionLevel(action) < l.config.Level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	maxBytes := int64(l.config.MaxSizeMB) * 1024 * 1024
	if l.currentSize >= maxBytes {
		if err := l.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "audit rotation failed: %v\n", err)
		}
		if l.file == nil {
			return
		}
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	var sb strings.Builder
	sb.WriteString(timestamp)
	sb.WriteString(" [")
	sb.WriteString(string(action))
	sb.WriteString("]")

	if scope != "" {
		sb.WriteString(" scope=")
		sb.WriteString(scope)
	}

	// Sorted keys keep entries stable for grepping and tests.
	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			v := details[k]
			switch val := v.(type) {
			case string:
				sb.WriteString(fmt.Sprintf(" %s=%q", k, val))
			default:
				sb.WriteString(fmt.Sprintf(" %s=%v", k, val))
			}
		}
	}

	sb.WriteString("\n")
	entry := sb.String()

	n, err := l.file.WriteString(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write audit entry: %v\n", err)
		return
	}
	l.currentSize += int64(n)
}

// Close closes the audit file and releases resources.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.file.Close()
	l.file = nil
	return err
}

// rotate shifts casement-audit.log.1 -> .2 and so on, keeping MaxFiles
// rotated generations, then reopens a fresh file.
func (l *Logger) rotate() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	basePath := l.config.FilePath
	for i := l.config.MaxFiles; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", basePath, i)
		newPath := fmt.Sprintf("%s.%d", basePath, i+1)
		if i == l.config.MaxFiles {
			os.Remove(oldPath)
		} else {
			os.Rename(oldPath, newPath)
		}
	}

	if err := os.Rename(basePath, basePath+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate audit file: %w", err)
	}

	f, err := os.OpenFile(basePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open new audit file: %w", err)
	}

	l.file = f
	l.currentSize = 0
	return nil
}

// Middleware returns table middleware that records every dispatch before
// passing it along.
func Middleware(l *Logger) route.Middleware {
	return func(ctx context.Context, req *route.Request, next func(), respond func(any)) {
		l.Log(ActionDispatch, "", map[string]interface{}{
			"method": string(req.Method),
			"path":   req.RawPath,
		})
		next()
	}
}

// ParseLevel converts a string to a Level. Unknown strings map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// String returns the lowercase name of the level.
func (lv Level) String() string {
	switch lv {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}
