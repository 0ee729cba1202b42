package server

import (
	"errors"
	"sync"

	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/router"
)

// EngineFactory constructs a query engine when none is provided at startup.
type EngineFactory func() (router.QueryEngine, error)

// EngineHandle holds the sole query engine reference for the process. The
// slot is written once during startup and read on every dispatch; it is never
// replaced while the server runs.
type EngineHandle struct {
	mu     sync.RWMutex
	engine router.QueryEngine
}

// NewEngineHandle creates an empty handle.
func NewEngineHandle() *EngineHandle {
	return &EngineHandle{}
}

// Initialize populates the handle. A provided engine is adopted as-is;
// otherwise the factory constructs one. Repeated calls are no-ops that return
// the already-held engine, so the handle never holds more than one instance.
func (h *EngineHandle) Initialize(provided router.QueryEngine, factory EngineFactory) (router.QueryEngine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine != nil {
		return h.engine, nil
	}

	if provided != nil {
		h.engine = provided
		return h.engine, nil
	}

	if factory == nil {
		return nil, errortypes.ConfigError(errors.New("no engine factory"), "cannot construct query engine")
	}

	engine, err := factory()
	if err != nil {
		return nil, errortypes.InternalError(err, "failed to construct query engine")
	}
	if engine == nil {
		return nil, errortypes.InternalError(errors.New("factory returned nil"), "failed to construct query engine")
	}

	h.engine = engine
	return h.engine, nil
}

// Get returns the held engine, or nil before initialization completes. It
// never blocks waiting for initialization.
func (h *EngineHandle) Get() router.QueryEngine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}
