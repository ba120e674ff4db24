package recovery

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		options        []Option
		panicSimulator func()
		expectedStatus int
		expectedBody   string
		expectStack    bool
	}{
		{
			name: "default behavior",
			panicSimulator: func() {
				panic(errors.New("test panic"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Internal Server Error"}`,
		},
		{
			name: "non error panic value",
			panicSimulator: func() {
				panic("something went wrong")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Internal Server Error"}`,
		},
		{
			name:    "stack trace exposed",
			options: []Option{WithExposeStackTrace(true)},
			panicSimulator: func() {
				panic(errors.New("test panic"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectStack:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(tt.options...).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.panicSimulator()
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedBody != "" && strings.TrimSpace(rec.Body.String()) != tt.expectedBody {
				t.Errorf("expected body %q, got %q", tt.expectedBody, rec.Body.String())
			}
			if tt.expectStack && !strings.Contains(rec.Body.String(), "stack") {
				t.Errorf("expected stack trace in body, got %q", rec.Body.String())
			}
		})
	}
}

func TestMiddleware_brokenPipe(t *testing.T) {
	handler := New().Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(&os.SyscallError{Err: errors.New("broken pipe")})
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req) // must not panic, response stays untouched

	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body for broken pipe, got %q", rec.Body.String())
	}
}
