// Package recovery provides a middleware that recovers from panics further
// down the handler chain and converts them into JSON error responses.
package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
)

// options is a struct that contains options for the recovery middleware.
// It uses the functional options pattern for flexible configuration.
type options struct {
	exposeStackTrace bool
	logPrefix        string
}

// Option is a type that is used to set options for the recovery middleware.
type Option func(*options)

// WithExposeStackTrace sets whether the stack trace should be included in
// the JSON error response. The default value is false.
func WithExposeStackTrace(expose bool) Option {
	return func(o *options) {
		o.exposeStackTrace = expose
	}
}

// WithLogPrefix sets a prefix that is prepended to every logged panic message.
func WithLogPrefix(prefix string) Option {
	return func(o *options) {
		o.logPrefix = prefix
	}
}

// Middleware recovers from panics and returns an Internal Server Error
// response instead. It should be the first middleware in the chain, so that
// it also covers panics in other middlewares.
type Middleware struct {
	o options
}

// New returns a new recovery middleware with the provided options.
func New(opts ...Option) *Middleware {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return &Middleware{o: o}
}

// Handler returns the recovery middleware handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()

				realErr, ok := err.(error)
				if !ok {
					realErr = fmt.Errorf("%v", err)
				}

				// A broken connection does not warrant a stack trace in the log,
				// and the response can not be written anyway.
				if isBrokenPipeError(realErr) {
					return
				}

				message := realErr.Error()
				if m.o.logPrefix != "" {
					message = m.o.logPrefix + " " + message
				}
				slog.Error(message, "stack", string(stack))

				m.writeErrorResponse(w, stack)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) writeErrorResponse(w http.ResponseWriter, stack []byte) {
	responseBody := map[string]any{
		"error": "Internal Server Error",
	}
	if m.o.exposeStackTrace && len(stack) > 0 {
		responseBody["stack"] = string(stack)
	}

	jsonBody, _ := json.Marshal(responseBody)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(jsonBody)
}

func isBrokenPipeError(err error) bool {
	var syscallErr *os.SyscallError
	if errors.As(err, &syscallErr) {
		errMsg := strings.ToLower(syscallErr.Err.Error())
		if strings.Contains(errMsg, "broken pipe") ||
			strings.Contains(errMsg, "connection reset by peer") {
			return true
		}
	}

	return false
}
