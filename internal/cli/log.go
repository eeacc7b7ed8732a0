package cli

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one export and logs its completion with the fields it
// was started with, so the start and done lines of a run correlate.
type progress struct {
	logger *log.Logger
	fields []any
	start  time.Time
}

// newProgress starts timing an operation described by key/value fields.
func newProgress(l *log.Logger, fields ...any) *progress {
	l.Debug("start", fields...)
	return &progress{logger: l, fields: fields, start: time.Now()}
}

// done logs msg with the start fields, extra fields and the elapsed time
// rounded to the millisecond, e.g. "Exported type=Article id=42 blocks=3 took=12ms".
func (p *progress) done(msg string, fields ...any) {
	kv := append(slices.Clone(p.fields), fields...)
	kv = append(kv, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, kv...)
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
