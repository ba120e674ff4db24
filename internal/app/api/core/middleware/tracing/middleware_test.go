package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_generatesRequestId(t *testing.T) {
	var ctxValue string
	handler := New(WithContextIdentifier("ReqId")).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxValue, _ = r.Context().Value("ReqId").(string)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	headerValue := rec.Header().Get("X-Request-Id")
	if headerValue == "" {
		t.Fatal("expected a generated request id header")
	}
	if ctxValue != headerValue {
		t.Errorf("context id %q does not match header id %q", ctxValue, headerValue)
	}
}

func TestMiddleware_reusesUpstreamId(t *testing.T) {
	handler := New(WithUpstreamHeader("X-Upstream-Id")).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Upstream-Id", "req-1234")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-1234" {
		t.Errorf("expected upstream id to be reused, got %q", got)
	}
}
