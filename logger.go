package hwdec

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/hwdec/command"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
	command.SetLogger(l)
}

// SetLogger configures the logger for hwdec and all its sub-packages.
// By default, hwdec produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to disable logging (restore default silent
// behavior).
//
// Log levels used by hwdec:
//   - [slog.LevelDebug]: internal diagnostics (slice layout, queue depth)
//   - [slog.LevelInfo]: important lifecycle events (decoder rebuild)
//   - [slog.LevelWarn]: non-fatal issues (missing reference recreated,
//     producer sync expiry)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	hwdec.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	hwdec.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to the execution path, which logs without importing
	// this package.
	command.SetLogger(l)
}

// Logger returns the current logger used by hwdec.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
