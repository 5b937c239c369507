// Package log wraps log/slog with the -v/-vv/-vvv verbosity model used by
// the command line and a single-line progress display for non-TUI runs.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spiffcs/cherrypick/internal/constants"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: progress, counts, cache hits
	LevelDebug        // -vv: tracker and git queries, timing
	LevelTrace        // -vvv: per-revision lookups
)

const slogLevelTrace = slog.Level(-8)

// Option configures Initialize.
type Option func(*options)

type options struct {
	json bool
}

// WithJSON emits JSON records instead of logfmt-style text.
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

var (
	mu         sync.Mutex
	verbosity  int
	logger     *slog.Logger
	output     io.Writer
	inProgress bool
	useJSON    bool
	lastStep   = map[string]int{}
)

// Initialize sets up the global logger with the specified verbosity level.
func Initialize(level int, w io.Writer, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var slogLevel slog.Level
	switch {
	case level >= LevelTrace:
		slogLevel = slogLevelTrace
	case level >= LevelDebug:
		slogLevel = slog.LevelDebug
	case level >= LevelInfo:
		slogLevel = slog.LevelInfo
	default:
		slogLevel = slog.LevelWarn
	}

	mu.Lock()
	defer mu.Unlock()

	verbosity = level
	output = w
	useJSON = o.json
	inProgress = false
	lastStep = map[string]int{}
	logger = slog.New(newHandler(w, slogLevel, o.json))
}

func newHandler(w io.Writer, level slog.Level, json bool) slog.Handler {
	ho := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == slogLevelTrace {
				a.Value = slog.StringValue("TRACE")
			}
			return a
		},
	}
	if json {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// Info logs at info level (-v)
func Info(msg string, args ...any) {
	if verbosity >= LevelInfo {
		emit(slog.LevelInfo, msg, args)
	}
}

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) {
	if verbosity >= LevelDebug {
		emit(slog.LevelDebug, msg, args)
	}
}

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) {
	if verbosity >= LevelTrace {
		emit(slogLevelTrace, msg, args)
	}
}

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) {
	emit(slog.LevelWarn, msg, args)
}

// Error logs at error level (always visible)
func Error(msg string, args ...any) {
	emit(slog.LevelError, msg, args)
}

func emit(level slog.Level, msg string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	clearProgress()
	logger.Log(context.Background(), level, msg, args...)
}

// Progress rewrites the current progress line. Only shown at info level.
func Progress(format string, args ...any) {
	if verbosity < LevelInfo {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	inProgress = true
	_, _ = fmt.Fprintf(output, "\r"+format, args...)
}

// ProgressCount reports done/total for a named step, writing only when the
// percentage crosses the next LogThrottlePercent boundary or finishes.
func ProgressCount(step string, done, total int) {
	if verbosity < LevelInfo || total <= 0 {
		return
	}
	pct := done * 100 / total
	bucket := pct / constants.LogThrottlePercent

	mu.Lock()
	last, seen := lastStep[step]
	if seen && bucket <= last && done < total {
		mu.Unlock()
		return
	}
	lastStep[step] = bucket
	mu.Unlock()

	Progress("%s %d/%d (%d%%)", step, done, total, pct)
	if done >= total {
		ProgressDone()
	}
}

// ProgressDone completes a progress line with "done" and newline
func ProgressDone() {
	mu.Lock()
	defer mu.Unlock()
	if verbosity >= LevelInfo && inProgress {
		_, _ = fmt.Fprintln(output, " done")
		inProgress = false
	}
}

// ProgressClear erases the current progress line.
func ProgressClear() {
	mu.Lock()
	defer mu.Unlock()
	if inProgress {
		_, _ = fmt.Fprint(output, "\r\033[K")
		inProgress = false
	}
}

// clearProgress keeps a pending progress line from being overwritten.
// Callers hold mu.
func clearProgress() {
	if inProgress {
		_, _ = fmt.Fprintln(output)
		inProgress = false
	}
}

// IsInfo returns true if info-level logging is enabled
func IsInfo() bool {
	return verbosity >= LevelInfo
}

// IsDebug returns true if debug-level logging is enabled
func IsDebug() bool {
	return verbosity >= LevelDebug
}

// IsTrace returns true if trace-level logging is enabled
func IsTrace() bool {
	return verbosity >= LevelTrace
}

// Verbosity returns the current verbosity level
func Verbosity() int {
	return verbosity
}

// SetOutput redirects log and progress output. It returns the previous
// writer so callers, like the TUI, can restore it.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	prev, jsonOut := output, useJSON
	mu.Unlock()

	var opts []Option
	if jsonOut {
		opts = append(opts, WithJSON())
	}
	Initialize(verbosity, w, opts...)
	return prev
}

func init() {
	output = os.Stderr
	verbosity = LevelQuiet
	logger = slog.New(newHandler(output, slog.LevelWarn, false))
}
