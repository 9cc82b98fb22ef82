package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the JSON log inside a log directory.
const LogFileName = "aidocgen.log"

// Options configures a Logger.
type Options struct {
	// Dir is the directory the JSON log is written to. Empty means stderr only.
	Dir string
	// Level is the minimum level written to the log file.
	Level string
	// Console receives a human-readable copy of records at ConsoleLevel or above.
	// Nil disables the console mirror.
	Console io.Writer
	// ConsoleLevel defaults to WARN.
	ConsoleLevel string
	// Rotation controls size-based rotation of the log file.
	Rotation RotationConfig
}

// Logger provides structured logging with context propagation.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	writer *RotatingWriter
	mu     sync.Mutex
	attrs  []slog.Attr // persistent attributes (run, analyzer, phase)
}

// NewLogger creates a Logger that writes JSON records to {dir}/aidocgen.log.
// If dir is empty, records go to stderr.
func NewLogger(dir string, level string) (*Logger, error) {
	return New(Options{Dir: dir, Level: level, Rotation: DefaultRotationConfig()})
}

// New creates a Logger from opts.
func New(opts Options) (*Logger, error) {
	var (
		handlers []slog.Handler
		writer   *RotatingWriter
	)

	if opts.Dir != "" {
		var err error
		writer, err = NewRotatingWriter(filepath.Join(opts.Dir, LogFileName), opts.Rotation)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: parseLevel(opts.Level)}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(opts.Level)}))
	}

	if opts.Console != nil {
		lvl := opts.ConsoleLevel
		if lvl == "" {
			lvl = LevelWarn
		}
		handlers = append(handlers, slog.NewTextHandler(opts.Console, &slog.HandlerOptions{Level: parseLevel(lvl)}))
	}

	var h slog.Handler = handlers[0]
	if len(handlers) > 1 {
		h = fanout(handlers)
	}

	return &Logger{
		logger: slog.New(h),
		writer: writer,
	}, nil
}

// DailyDir returns the dated log directory under base, e.g. base/2024_05_01.
func DailyDir(base string, now time.Time) string {
	return filepath.Join(base, now.Format("2006_01_02"))
}

// parseLevel converts a string log level to slog.Level.
// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn, "WARNING":
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun returns a child Logger that tags every record with the run ID.
func (l *Logger) WithRun(runID string) *Logger {
	return l.withAttr(slog.String("run_id", runID))
}

// WithAnalyzer returns a child Logger that tags every record with the analyzer ID.
func (l *Logger) WithAnalyzer(id string) *Logger {
	return l.withAttr(slog.String("analyzer", id))
}

// WithPhase returns a child Logger tagged with a pipeline phase
// such as "select", "execute", "aggregate" or "generate".
func (l *Logger) WithPhase(phase string) *Logger {
	return l.withAttr(slog.String("phase", phase))
}

// With returns a child Logger with arbitrary key-value attributes.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	attrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2)
	attrs = append(attrs, l.attrs...)
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}

	return &Logger{logger: l.logger, writer: l.writer, attrs: attrs}
}

func (l *Logger) withAttr(attr slog.Attr) *Logger {
	attrs := make([]slog.Attr, len(l.attrs)+1)
	copy(attrs, l.attrs)
	attrs[len(l.attrs)] = attr
	return &Logger{logger: l.logger, writer: l.writer, attrs: attrs}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	all := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		all = append(all, attr.Key, attr.Value.Any())
	}
	all = append(all, args...)

	l.logger.Log(context.Background(), level, msg, all...)
}

// Slog returns the underlying slog.Logger with persistent attributes applied,
// for libraries that accept one.
func (l *Logger) Slog() *slog.Logger {
	args := make([]any, 0, len(l.attrs))
	for _, a := range l.attrs {
		args = append(args, a)
	}
	return l.logger.With(args...)
}

// Path returns the log file path, or "" when logging to stderr.
func (l *Logger) Path() string {
	if l.writer == nil {
		return ""
	}
	return l.writer.FilePath()
}

// Close flushes and closes the log file.
// It is a no-op for stderr loggers.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}
	if err := l.writer.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// NopLogger returns a Logger that discards all log output.
func NopLogger() *Logger {
	return &Logger{logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

// ParseLevel converts a string level to the corresponding constant.
// Returns LevelInfo if the level string is not recognized.
func ParseLevel(level string) string {
	switch parseLevel(level) {
	case slog.LevelDebug:
		return LevelDebug
	case slog.LevelWarn:
		return LevelWarn
	case slog.LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler []slog.Handler

func fanout(hs []slog.Handler) fanoutHandler { return fanoutHandler(hs) }

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
