package request

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"testing"
)

func TestPath(t *testing.T) {
	r := &http.Request{URL: &url.URL{Path: "/test/sample"}}
	r.SetPathValue("first", "test")
	if got := Path(r, "first"); got != "test" {
		t.Errorf("Path() = %v, want %v", got, "test")
	}
}

func TestDefaultPath(t *testing.T) {
	r := &http.Request{URL: &url.URL{Path: "/"}}
	if got := PathDefault(r, "test", "default"); got != "default" {
		t.Errorf("PathDefault() = %v, want %v", got, "default")
	}
}

func TestDefaultPath_noDefault(t *testing.T) {
	r := &http.Request{URL: &url.URL{Path: "/"}}
	r.SetPathValue("first", "test")
	if got := PathDefault(r, "first", "test"); got != "test" {
		t.Errorf("PathDefault() = %v, want %v", got, "test")
	}
}

func TestQuery(t *testing.T) {
	r := &http.Request{URL: &url.URL{RawQuery: "name=value"}}
	if got := Query(r, "name"); got != "value" {
		t.Errorf("Query() = %v, want %v", got, "value")
	}
}

func TestDefaultQuery(t *testing.T) {
	r := &http.Request{URL: &url.URL{RawQuery: ""}}
	if got := QueryDefault(r, "name", "default"); got != "default" {
		t.Errorf("QueryDefault() = %v, want %v", got, "default")
	}
}

func TestQuerySlice(t *testing.T) {
	r := &http.Request{URL: &url.URL{RawQuery: "name=value1  &name=value2"}}
	expected := []string{"value1", "value2"}
	if got := QuerySlice(r, "name"); !slices.Equal(got, expected) {
		t.Errorf("QuerySlice() = %v, want %v", got, expected)
	}
}

func TestQuerySlice_empty(t *testing.T) {
	r := &http.Request{URL: &url.URL{RawQuery: "name=value1&name=value2"}}
	if got := QuerySlice(r, "nix"); !slices.Equal(got, nil) {
		t.Errorf("QuerySlice() = %v, want %v", got, nil)
	}
}

func TestDefaultQuerySlice(t *testing.T) {
	r := &http.Request{URL: &url.URL{RawQuery: ""}}
	defaultValue := []string{"default1", "default2"}
	if got := QuerySliceDefault(r, "name", defaultValue); !slices.Equal(got, defaultValue) {
		t.Errorf("QuerySliceDefault() = %v, want %v", got, defaultValue)
	}
}

func TestHeader(t *testing.T) {
	r := &http.Request{Header: http.Header{"X-Custom": []string{"  value  "}}}
	if got := Header(r, "X-Custom"); got != "value" {
		t.Errorf("Header() = %v, want %v", got, "value")
	}
}

func TestDefaultHeader(t *testing.T) {
	r := &http.Request{Header: http.Header{}}
	if got := HeaderDefault(r, "X-Custom", "default"); got != "default" {
		t.Errorf("HeaderDefault() = %v, want %v", got, "default")
	}
}

func TestBodyJson(t *testing.T) {
	r, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"value"}`))

	var target struct {
		Name string `json:"name"`
	}
	if err := BodyJson(r, &target); err != nil {
		t.Fatalf("BodyJson() error = %v", err)
	}
	if target.Name != "value" {
		t.Errorf("BodyJson() = %v, want %v", target.Name, "value")
	}
}

func TestBodyString(t *testing.T) {
	r, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader("raw body"))

	got, err := BodyString(r)
	if err != nil {
		t.Fatalf("BodyString() error = %v", err)
	}
	if got != "raw body" {
		t.Errorf("BodyString() = %v, want %v", got, "raw body")
	}
}
