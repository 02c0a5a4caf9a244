package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"kvbench/internal/config"
)

type Logger struct {
	*slog.Logger
	config *config.LoggingConfig
}

type ContextKey string

const (
	CorrelationIDKey ContextKey = "correlation_id"
	RequestIDKey     ContextKey = "request_id"
	RunIDKey         ContextKey = "run_id"
	ContainerKey     ContextKey = "container"
)

// NewLogger creates a structured logger from cfg and installs it as the
// slog default
func NewLogger(cfg *config.LoggingConfig) *Logger {
	return NewLoggerWithWriter(cfg, outputFor(cfg.Output))
}

// NewLoggerWithWriter is NewLogger with the destination supplied directly
func NewLoggerWithWriter(cfg *config.LoggingConfig, writer io.Writer) *Logger {
	level := ParseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text", "console":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &Logger{
		Logger: logger,
		config: cfg,
	}
}

// ParseLevel maps a config level name to a slog level; unknown names are info
func ParseLevel(name string) slog.Level {
	switch name {
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

func outputFor(output string) io.Writer {
	switch output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		slog.Warn("Failed to open log file, using stderr", "error", err, "file", output)
		return os.Stderr
	}
	return file
}

// WithContext creates a new logger carrying the ids stored in ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	for _, key := range []ContextKey{RunIDKey, ContainerKey, CorrelationIDKey, RequestIDKey} {
		if v := ctx.Value(key); v != nil {
			logger = logger.With(string(key), v)
		}
	}

	return &Logger{
		Logger: logger,
		config: l.config,
	}
}

// WithFields creates a new logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	var args []interface{}
	for key, value := range fields {
		args = append(args, key, value)
	}

	return &Logger{
		Logger: l.Logger.With(args...),
		config: l.config,
	}
}

// WithField creates a new logger with a single additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With(key, value),
		config: l.config,
	}
}

// WithError creates a new logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With("error", err.Error()),
		config: l.config,
	}
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).Debug(msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).Info(msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).Warn(msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).Error(msg, args...)
}

// Trial logs a finished trial
func (l *Logger) Trial(ctx context.Context, threads int, workload string, operations, misses uint64, elapsed time.Duration, mops float64) {
	l.WithContext(ctx).Info("Trial completed",
		"threads", threads,
		"workload", workload,
		"operations", operations,
		"misses", misses,
		"elapsed_ms", elapsed.Milliseconds(),
		"mops", mops,
	)
}

// SweepEvent logs orchestration milestones such as sweep start and end
func (l *Logger) SweepEvent(ctx context.Context, event string, details map[string]interface{}) {
	args := []interface{}{"event", event}
	for key, value := range details {
		args = append(args, key, value)
	}

	l.WithContext(ctx).Info("Sweep event", args...)
}

// RequestStart logs the start of an API request
func (l *Logger) RequestStart(ctx context.Context, method, path, userAgent string) {
	if l.config != nil && !l.config.EnableRequestTracing {
		return
	}
	l.WithContext(ctx).Debug("Request started",
		"method", method,
		"path", path,
		"user_agent", userAgent,
	)
}

// RequestEnd logs the end of an API request
func (l *Logger) RequestEnd(ctx context.Context, method, path string, statusCode int, duration time.Duration, size int64) {
	if l.config != nil && !l.config.EnableRequestTracing {
		return
	}

	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	l.WithContext(ctx).Log(ctx, level, "Request completed",
		"method", method,
		"path", path,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"response_size", size,
	)
}
