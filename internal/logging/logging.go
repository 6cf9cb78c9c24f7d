// Package logging wires slog with the request-scoped attributes the
// API attaches to every line: request_id and the tenant's company_id.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	companyIDKey contextKey = "company_id"
	loggerKey    contextKey = "logger"
)

// New builds the process logger. level is one of debug, info, warn,
// error; format is "json" or "text". Unknown values fall back to info
// and text. Debug level also records source locations.
func New(level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// WithRequestID tags ctx with the request ID assigned by the router.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID from ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithCompanyID tags the context with the tenant handling the request.
// Every log line emitted through L then carries company_id, which is how
// cross-tenant mixups surface in aggregated logs.
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyIDKey, companyID)
}

// CompanyID returns the tenant ID from ctx, or "".
func CompanyID(ctx context.Context) string {
	id, _ := ctx.Value(companyIDKey).(string)
	return id
}

// WithLogger stores a logger in ctx for handlers further down.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// L returns the context logger pre-tagged with whatever request-scoped
// attributes ctx carries.
func L(ctx context.Context) *slog.Logger {
	logger := FromContext(ctx)
	if id := RequestID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	if id := CompanyID(ctx); id != "" {
		logger = logger.With("company_id", id)
	}
	return logger
}
