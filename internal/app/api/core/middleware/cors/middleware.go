// Package cors provides a middleware that handles Cross-Origin Resource
// Sharing headers and preflight requests.
package cors

import (
	"net/http"
	"strings"
)

// options is a struct that contains options for the CORS middleware.
// It uses the functional options pattern for flexible configuration.
type options struct {
	allowedOrigins   []string
	allowedMethods   []string
	allowedHeaders   []string
	allowCredentials bool
	maxAge           string
}

// Option is a type that is used to set options for the CORS middleware.
type Option func(*options)

// WithAllowedOrigins sets the origins that are allowed to access the API.
// The default value is the wildcard origin "*".
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		o.allowedOrigins = origins
	}
}

// WithAllowedMethods sets the allowed request methods.
func WithAllowedMethods(methods ...string) Option {
	return func(o *options) {
		o.allowedMethods = methods
	}
}

// WithAllowedHeaders sets the allowed request headers.
func WithAllowedHeaders(headers ...string) Option {
	return func(o *options) {
		o.allowedHeaders = headers
	}
}

// WithAllowCredentials sets whether cookies may be included in cross-origin
// requests. Credentials are never allowed for the wildcard origin.
func WithAllowCredentials(allow bool) Option {
	return func(o *options) {
		o.allowCredentials = allow
	}
}

// Middleware answers CORS preflight requests and decorates responses with
// the negotiated CORS headers.
type Middleware struct {
	o options
}

// New returns a new CORS middleware with the provided options.
func New(opts ...Option) *Middleware {
	o := options{
		allowedOrigins: []string{"*"},
		allowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		allowedHeaders: []string{"Content-Type", "Authorization"},
		maxAge:         "3600",
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Middleware{o: o}
}

// Handler returns the CORS middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if allowed := m.allowedOrigin(origin); allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				if m.o.allowCredentials && allowed != "*" {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(m.o.allowedMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(m.o.allowedHeaders, ", "))
			w.Header().Set("Access-Control-Max-Age", m.o.maxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) allowedOrigin(origin string) string {
	for _, allowed := range m.o.allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}

	return ""
}
