// Package logging provides a middleware that writes one structured log line
// per handled request.
package logging

import (
	"log/slog"
	"net/http"
	"time"
)

// options is a struct that contains options for the logging middleware.
// It uses the functional options pattern for flexible configuration.
type options struct {
	level    slog.Level
	reqIdKey string
	logger   *slog.Logger
}

// Option is a type that is used to set options for the logging middleware.
type Option func(*options)

// WithLevel sets the log level that request log lines are written with.
// The default level is debug.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithRequestIdContextKey sets the context key that holds the request id set
// by the tracing middleware. If the key is empty, no request id is logged.
func WithRequestIdContextKey(key string) Option {
	return func(o *options) {
		o.reqIdKey = key
	}
}

// WithLogger sets the logger that is used to write request log lines.
// By default, the slog default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Middleware logs method, path, response status and duration of each request.
type Middleware struct {
	o options
}

// New returns a new logging middleware with the provided options.
func New(opts ...Option) *Middleware {
	o := options{
		level:  slog.LevelDebug,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Middleware{o: o}
}

// Handler returns the logging middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start).String(),
			"bytes", recorder.written,
		}
		if m.o.reqIdKey != "" {
			if reqId, ok := r.Context().Value(m.o.reqIdKey).(string); ok && reqId != "" {
				attrs = append(attrs, "requestId", reqId)
			}
		}

		m.o.logger.Log(r.Context(), m.o.level, "handled request", attrs...)
	})
}
