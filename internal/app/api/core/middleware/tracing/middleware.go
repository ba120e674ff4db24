// Package tracing provides a middleware that tags every request with a
// request id. The id is taken from an upstream header if available, otherwise
// a fresh one is generated.
package tracing

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// options is a struct that contains options for the tracing middleware.
// It uses the functional options pattern for flexible configuration.
type options struct {
	upstreamReqIdHeader string
	headerIdentifier    string
	contextIdentifier   string
}

// Option is a type that is used to set options for the tracing middleware.
type Option func(*options)

// WithUpstreamHeader sets the upstream header name that should be used to
// fetch the request id. If no upstream header is found, a random id is
// generated.
func WithUpstreamHeader(header string) Option {
	return func(o *options) {
		o.upstreamReqIdHeader = header
	}
}

// WithHeaderIdentifier specifies the header name for the request id that is
// added to the response headers. If the identifier is empty, the request id
// will not be added to the response headers.
func WithHeaderIdentifier(identifier string) Option {
	return func(o *options) {
		o.headerIdentifier = identifier
	}
}

// WithContextIdentifier specifies the value-key for the request id that is
// added to the request context. If the identifier is empty, the request id
// will not be added to the context.
func WithContextIdentifier(identifier string) Option {
	return func(o *options) {
		o.contextIdentifier = identifier
	}
}

// Middleware tags requests with a request id for log correlation.
type Middleware struct {
	o options
}

// New returns a new tracing middleware with the provided options.
func New(opts ...Option) *Middleware {
	o := options{
		headerIdentifier:  "X-Request-Id",
		contextIdentifier: "RequestId",
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Middleware{o: o}
}

// Handler returns the tracing middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqId string

		if m.o.upstreamReqIdHeader != "" {
			reqId = r.Header.Get(m.o.upstreamReqIdHeader)
		}
		if reqId == "" {
			reqId = uuid.NewString()
		}

		if m.o.headerIdentifier != "" {
			w.Header().Set(m.o.headerIdentifier, reqId)
		}

		if m.o.contextIdentifier != "" {
			ctx := context.WithValue(r.Context(), m.o.contextIdentifier, reqId)
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}
