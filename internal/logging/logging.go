// Package logging provides leveled diagnostic logging for the assistant.
// Messages go to stderr and, after Init, to a log file as well. User-facing
// command output does not go through this package.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu     sync.RWMutex
	level            = LevelInfo
	output io.Writer = os.Stderr
	file   *os.File
)

var prefixes = map[Level]string{
	LevelDebug: color.New(color.FgHiBlack).Sprint("[DEBUG]"),
	LevelInfo:  color.New(color.FgCyan).Sprint("[INFO]"),
	LevelWarn:  color.New(color.FgYellow).Sprint("[WARN]"),
	LevelError: color.New(color.FgRed, color.Bold).Sprint("[ERROR]"),
}

// ParseLevel converts a configuration string to a Level. Unknown values map
// to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Init adds a log file sink next to stderr. An empty path is a no-op.
func Init(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	file = f
	output = io.MultiWriter(os.Stderr, f)
	return nil
}

// Close releases the log file opened by Init.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	output = os.Stderr
	return err
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return
	}
	fmt.Fprintf(output, "%s %s "+format+"\n", append([]any{time.Now().Format("15:04:05"), prefixes[l]}, args...)...)
}

func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a section header at debug level.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if level <= LevelDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Enabled reports whether messages at l are written.
func Enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}
