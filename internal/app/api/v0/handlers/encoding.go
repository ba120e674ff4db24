package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ai-trader/trader-portal/internal/app/api/core/request"
)

// pathId parses the named path parameter as a numeric record id.
func pathId(r *http.Request, name string) (uint64, error) {
	raw := request.Path(r, name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %w", name, err)
	}

	return id, nil
}

// pathSymbol returns the symbol path parameter.
func pathSymbol(r *http.Request) string {
	return request.Path(r, "symbol")
}

// queryTime parses the named query parameter as an RFC 3339 timestamp.
// An absent parameter yields the zero time.
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := request.Query(r, name)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s parameter: %w", name, err)
	}

	return t, nil
}
