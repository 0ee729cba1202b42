package server

import (
	"context"
	"errors"
	"testing"

	"github.com/joejoinerr/CrawlnChat/internal/router"
	"github.com/joejoinerr/CrawlnChat/internal/tools"
)

var testError = errors.New("test error")

// MockQueryEngine implements the router.QueryEngine interface for testing
type MockQueryEngine struct {
	Queries     []string
	Response    string
	Sources     []string
	ReturnError error
}

func (m *MockQueryEngine) ProcessQuery(_ context.Context, query string) (*router.Result, error) {
	m.Queries = append(m.Queries, query)
	if m.ReturnError != nil {
		return nil, m.ReturnError
	}
	return &router.Result{Response: m.Response, Sources: m.Sources}, nil
}

func newInitializedServer(t *testing.T, opts Options) *MCPChatToolServer {
	t.Helper()
	s := NewChatToolServer(opts)
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return s
}

func TestDispatchBeforeEngineReady(t *testing.T) {
	engine := &MockQueryEngine{Response: "never"}
	s := newInitializedServer(t, Options{})

	// Handle deliberately left empty: no Start, no Initialize on the handle.
	resp, err := s.handleChatWithContent(nil, tools.ChatRequest{Query: "hello"})
	if err != nil {
		t.Fatalf("handler must not return a protocol error: %v", err)
	}
	if resp.Error != "Service not initialized" {
		t.Errorf("expected not-initialized error, got %#v", resp)
	}
	if len(engine.Queries) != 0 {
		t.Error("engine must not be invoked before initialization")
	}
}

func TestDispatchSuccessPassThrough(t *testing.T) {
	engine := &MockQueryEngine{Response: "R", Sources: []string{"s1"}}
	s := newInitializedServer(t, Options{Engine: engine})

	if _, err := s.Handle().Initialize(engine, nil); err != nil {
		t.Fatalf("handle initialization failed: %v", err)
	}

	resp, err := s.handleChatWithContent(nil, tools.ChatRequest{Query: "any"})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if resp.Response != "R" {
		t.Errorf("expected response R, got %q", resp.Response)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "s1" {
		t.Errorf("expected sources [s1], got %v", resp.Sources)
	}
	if resp.IsError() {
		t.Errorf("unexpected error shape: %#v", resp)
	}
}

func TestDispatchDefaultsNilSourcesToEmpty(t *testing.T) {
	engine := &MockQueryEngine{Response: "R", Sources: nil}
	s := newInitializedServer(t, Options{})
	s.Handle().Initialize(engine, nil)

	resp, err := s.handleChatWithContent(nil, tools.ChatRequest{Query: "any"})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("sources must default to an empty list, got %#v", resp.Sources)
	}
}

func TestDispatchFailureContainment(t *testing.T) {
	engine := &MockQueryEngine{ReturnError: testError}
	s := newInitializedServer(t, Options{})
	s.Handle().Initialize(engine, nil)

	resp, err := s.handleChatWithContent(nil, tools.ChatRequest{Query: "bad"})
	if err != nil {
		t.Fatalf("engine failures must not escape the tool boundary: %v", err)
	}
	if resp.Error == "" {
		t.Fatal("expected error-shaped response")
	}
	if want := "Error processing query: " + testError.Error(); resp.Error != want {
		t.Errorf("expected %q, got %q", want, resp.Error)
	}

	// A failed call must not poison subsequent calls.
	engine.ReturnError = nil
	engine.Response = "recovered"
	resp, err = s.handleChatWithContent(nil, tools.ChatRequest{Query: "good"})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if resp.Response != "recovered" {
		t.Errorf("expected recovery after failure, got %#v", resp)
	}
}

func TestHandleInitializeIsIdempotent(t *testing.T) {
	h := NewEngineHandle()
	constructed := 0
	factory := func() (router.QueryEngine, error) {
		constructed++
		return &MockQueryEngine{Response: "built"}, nil
	}

	first, err := h.Initialize(nil, factory)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	second, err := h.Initialize(nil, factory)
	if err != nil {
		t.Fatalf("repeat Initialize failed: %v", err)
	}

	if constructed != 1 {
		t.Errorf("expected exactly one construction, got %d", constructed)
	}
	if first != second || h.Get() != first {
		t.Error("handle must hold exactly one engine instance")
	}
}

func TestHandleAdoptsProvidedEngine(t *testing.T) {
	h := NewEngineHandle()
	provided := &MockQueryEngine{Response: "provided"}
	factory := func() (router.QueryEngine, error) {
		t.Fatal("factory must not run when an engine is provided")
		return nil, nil
	}

	engine, err := h.Initialize(provided, factory)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if engine != router.QueryEngine(provided) || h.Get() != router.QueryEngine(provided) {
		t.Error("provided engine must be adopted without construction")
	}
}

func TestHandleInitializeFailures(t *testing.T) {
	h := NewEngineHandle()
	if _, err := h.Initialize(nil, nil); err == nil {
		t.Error("expected error with no engine and no factory")
	}
	if h.Get() != nil {
		t.Error("failed initialization must leave the handle empty")
	}

	if _, err := h.Initialize(nil, func() (router.QueryEngine, error) {
		return nil, testError
	}); err == nil {
		t.Error("expected factory error to propagate")
	}

	if _, err := h.Initialize(nil, func() (router.QueryEngine, error) {
		return nil, nil
	}); err == nil {
		t.Error("expected error when factory returns nil engine")
	}
}

func TestStartWithoutInitializeFails(t *testing.T) {
	s := NewChatToolServer(Options{Engine: &MockQueryEngine{}})
	if err := s.Start(); err == nil {
		t.Fatal("Start before Initialize must fail")
	}
	if s.State() != StateFailed {
		t.Errorf("expected failed state, got %s", s.State())
	}
}

func TestStartFailsWhenEngineCannotBeBuilt(t *testing.T) {
	s := newInitializedServer(t, Options{
		Factory: func() (router.QueryEngine, error) { return nil, testError },
	})

	if err := s.Start(); err == nil {
		t.Fatal("expected fatal startup error")
	}
	if s.State() != StateFailed {
		t.Errorf("expected failed state, got %s", s.State())
	}
}

func TestLifecycleStateString(t *testing.T) {
	cases := map[LifecycleState]string{
		StateUninitialized: "uninitialized",
		StateInitializing:  "initializing",
		StateServing:       "serving",
		StateFailed:        "failed",
	}
	for state, want := range cases {
		if state.String() != want {
			t.Errorf("expected %q, got %q", want, state.String())
		}
	}
}
