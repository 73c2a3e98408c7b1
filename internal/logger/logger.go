package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// Logger is the logging interface used across the application.
type Logger interface {
	Debug(msg string, tags ...any)
	Info(msg string, tags ...any)
	Warn(msg string, tags ...any)
	Error(msg string, tags ...any)
	Fatal(msg string, tags ...any)

	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	Fatalf(format string, v ...any)

	With(tags ...any) Logger
	// Write writes a raw message at info level without source attribution.
	Write(msg string)
}

// Option configures the logger.
type Option func(*config)

type config struct {
	debug  bool
	format string
	quiet  bool
	writer io.Writer
}

// WithDebug enables debug level logging.
func WithDebug() Option {
	return func(c *config) { c.debug = true }
}

// WithFormat sets the output format ("text" or "json").
func WithFormat(format string) Option {
	return func(c *config) { c.format = format }
}

// WithQuiet suppresses the default stderr sink. Combined with WithWriter
// this sends output exclusively to the given writer.
func WithQuiet() Option {
	return func(c *config) { c.quiet = true }
}

// WithWriter adds an additional output sink.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.writer = w }
}

// NewLogger creates a Logger from the given options.
func NewLogger(opts ...Option) Logger {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: true}

	var handlers []slog.Handler
	if !cfg.quiet {
		handlers = append(handlers, newHandler(os.Stderr, cfg.format, handlerOpts))
	}
	if cfg.writer != nil {
		handlers = append(handlers, newHandler(cfg.writer, cfg.format, handlerOpts))
	}
	if len(handlers) == 0 {
		// Quiet without an explicit writer still needs a sink for Fatal paths.
		handlers = append(handlers, newHandler(io.Discard, cfg.format, handlerOpts))
	}

	return &appLogger{handler: slogmulti.Fanout(handlers...), level: level}
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

var defaultLogger = NewLogger()

type appLogger struct {
	handler slog.Handler
	level   slog.Level
}

func (l *appLogger) Debug(msg string, tags ...any) { l.log(slog.LevelDebug, msg, tags...) }
func (l *appLogger) Info(msg string, tags ...any)  { l.log(slog.LevelInfo, msg, tags...) }
func (l *appLogger) Warn(msg string, tags ...any)  { l.log(slog.LevelWarn, msg, tags...) }
func (l *appLogger) Error(msg string, tags ...any) { l.log(slog.LevelError, msg, tags...) }

func (l *appLogger) Fatal(msg string, tags ...any) {
	l.log(slog.LevelError, msg, tags...)
	os.Exit(1)
}

func (l *appLogger) Debugf(format string, v ...any) {
	l.log(slog.LevelDebug, fmt.Sprintf(format, v...))
}

func (l *appLogger) Infof(format string, v ...any) {
	l.log(slog.LevelInfo, fmt.Sprintf(format, v...))
}

func (l *appLogger) Warnf(format string, v ...any) {
	l.log(slog.LevelWarn, fmt.Sprintf(format, v...))
}

func (l *appLogger) Errorf(format string, v ...any) {
	l.log(slog.LevelError, fmt.Sprintf(format, v...))
}

func (l *appLogger) Fatalf(format string, v ...any) {
	l.log(slog.LevelError, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func (l *appLogger) With(tags ...any) Logger {
	return &appLogger{handler: l.handler.WithAttrs(argsToAttrs(tags)), level: l.level}
}

func (l *appLogger) Write(msg string) {
	r := slog.NewRecord(time.Now(), slog.LevelInfo, msg, 0)
	_ = l.handler.Handle(context.Background(), r)
}

// log emits a record attributed to the caller of the exported method,
// skipping the two frames of this package.
func (l *appLogger) log(level slog.Level, msg string, tags ...any) {
	if level < l.level {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(tags...)
	_ = l.handler.Handle(context.Background(), r)
}

func argsToAttrs(tags []any) []slog.Attr {
	var attrs []slog.Attr
	for i := 0; i+1 < len(tags); i += 2 {
		key, ok := tags[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", tags[i])
		}
		attrs = append(attrs, slog.Any(key, tags[i+1]))
	}
	return attrs
}
