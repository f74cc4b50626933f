// Package log provides context-aware logging for wtsweep.
package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ctxKey struct{}

// Logger writes diagnostics to the console and, when a sink is attached,
// records structured entries to a log file.
type Logger struct {
	out     io.Writer
	verbose bool
	quiet   bool
	sink    *zap.Logger
}

// New creates a new logger. quiet overrides verbose.
func New(out io.Writer, verbose, quiet bool) *Logger {
	return &Logger{out: out, verbose: verbose, quiet: quiet, sink: zap.NewNop()}
}

// WithSink returns a copy of the logger that also records to z.
func (l *Logger) WithSink(z *zap.Logger) *Logger {
	c := *l
	if z == nil {
		z = zap.NewNop()
	}
	c.sink = z
	return &c
}

// Sink returns the structured logger. Never nil.
func (l *Logger) Sink() *zap.Logger {
	return l.sink
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context.
// Returns a no-op logger if none is attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return New(io.Discard, false, false)
}

// Printf writes formatted output unless quiet.
func (l *Logger) Printf(format string, args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintf(l.out, format, args...)
}

// Println writes a line of output unless quiet.
func (l *Logger) Println(args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintln(l.out, args...)
}

// Debug logs a message with key/value pairs.
// Printed to the console only in verbose mode; always recorded to the sink.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.sink.Debug(msg, fields(keyvals)...)
	if !l.IsVerbose() {
		return
	}
	fmt.Fprintln(l.out, msg+formatKeyvals(keyvals))
}

// Warn logs a warning to the console (unless quiet) and the sink.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.sink.Warn(msg, fields(keyvals)...)
	if l.quiet {
		return
	}
	fmt.Fprintln(l.out, "warning: "+msg+formatKeyvals(keyvals))
}

// Command logs an external command execution. The returned func
// records how long it took and must be called once the command exits.
func (l *Logger) Command(dir, name string, args ...string) func(time.Duration) {
	line := name
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	return func(elapsed time.Duration) {
		l.sink.Debug("exec",
			zap.String("dir", dir),
			zap.String("cmd", line),
			zap.Duration("elapsed", elapsed),
		)
		if !l.IsVerbose() {
			return
		}
		prefix := "$ "
		if dir != "" {
			prefix = "[" + dir + "] $ "
		}
		fmt.Fprintf(l.out, "%s%s (%s)\n", prefix, line, elapsed.Round(time.Millisecond))
	}
}

// IsVerbose returns true if verbose output is enabled and not silenced by quiet.
func (l *Logger) IsVerbose() bool {
	return l.verbose && !l.quiet
}

// Writer returns the underlying writer.
func (l *Logger) Writer() io.Writer {
	return l.out
}

// formatKeyvals renders complete key/value pairs as " k=v k2=v2".
// A trailing key without a value is dropped.
func formatKeyvals(keyvals []any) string {
	var b strings.Builder
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	return b.String()
}

func fields(keyvals []any) []zap.Field {
	fs := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fs = append(fs, zap.Any(fmt.Sprint(keyvals[i]), keyvals[i+1]))
	}
	return fs
}
