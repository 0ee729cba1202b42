package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joejoinerr/CrawlnChat/internal/router"
)

type stubEngine struct {
	result *router.Result
	err    error
}

func (s *stubEngine) ProcessQuery(_ context.Context, _ string) (*router.Result, error) {
	return s.result, s.err
}

func newTestFrontend(engine router.QueryEngine) *Frontend {
	return NewFrontend(func() router.QueryEngine { return engine }, "Crawl n Chat API", "0.1.0")
}

func TestRootEndpoint(t *testing.T) {
	frontend := newTestFrontend(&stubEngine{})
	rec := httptest.NewRecorder()

	frontend.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body RootResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !strings.Contains(body.Message, "Crawl n Chat API") {
		t.Errorf("unexpected message: %q", body.Message)
	}
}

func TestChatEndpointSuccess(t *testing.T) {
	engine := &stubEngine{result: &router.Result{Response: "R", Sources: []string{"s1"}}}
	frontend := newTestFrontend(engine)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"hello"}`))
	frontend.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Response != "R" || len(body.Sources) != 1 {
		t.Errorf("unexpected body: %#v", body)
	}
}

func TestChatEndpointNilSourcesBecomeEmptyArray(t *testing.T) {
	engine := &stubEngine{result: &router.Result{Response: "R"}}
	frontend := newTestFrontend(engine)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"hello"}`))
	frontend.Routes().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `"sources":[]`) {
		t.Errorf("sources must serialize as an empty array, got: %s", rec.Body.String())
	}
}

func TestChatEndpointBeforeReady(t *testing.T) {
	frontend := NewFrontend(func() router.QueryEngine { return nil }, "t", "v")
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"hello"}`))
	frontend.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before initialization, got %d", rec.Code)
	}
}

func TestChatEndpointEngineError(t *testing.T) {
	engine := &stubEngine{err: errors.New("backend down")}
	frontend := newTestFrontend(engine)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"hello"}`))
	frontend.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Status != "error" || body.Code != ErrorCodeInternalError {
		t.Errorf("unexpected error body: %#v", body)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	frontend := newTestFrontend(&stubEngine{result: &router.Result{}})

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing query", `{}`},
		{"oversized query", `{"query":"` + strings.Repeat("x", maxQueryLength+1) + `"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tc.body))
			frontend.Routes().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestChatEndpointRejectsGet(t *testing.T) {
	frontend := newTestFrontend(&stubEngine{})
	rec := httptest.NewRecorder()

	frontend.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for GET /chat, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	frontend := NewFrontend(func() router.QueryEngine { return nil }, "t", "v")
	rec := httptest.NewRecorder()

	frontend.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(rec.Body.String(), "initializing") {
		t.Errorf("expected initializing status, got: %s", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	frontend := newTestFrontend(&stubEngine{})
	rec := httptest.NewRecorder()

	frontend.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
