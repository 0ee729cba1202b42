package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/logger"
	"github.com/joejoinerr/CrawlnChat/internal/router"
)

const maxQueryLength = 1000

// ChatRequest is the POST /chat request body.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the POST /chat success body.
type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// RootResponse is the GET / body.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// Frontend serves the HTTP API in front of the query engine. The engine
// handle is read per request so calls arriving before initialization get a
// 503 rather than a hang.
type Frontend struct {
	engine     func() router.QueryEngine
	title      string
	version    string
	httpServer *http.Server
	log        *logger.Logger
}

// NewFrontend creates an HTTP frontend. The engine func is called on each
// chat request and may return nil while the service is still initializing.
func NewFrontend(engine func() router.QueryEngine, title, version string) *Frontend {
	return &Frontend{
		engine:  engine,
		title:   title,
		version: version,
		log:     logger.GetLogger("web"),
	}
}

// Routes builds the frontend's HTTP handler.
func (f *Frontend) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", f.handleRoot)
	mux.HandleFunc("/chat", f.handleChat)
	mux.HandleFunc("/health", f.handleHealth)
	return corsMiddleware(mux)
}

// ListenAndServe blocks serving the API on the given port.
func (f *Frontend) ListenAndServe(port int) error {
	f.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      f.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	f.log.Info("HTTP frontend listening on port %d", port)
	if err := f.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errortypes.TransportError(err, "HTTP frontend failed")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (f *Frontend) Shutdown(ctx context.Context) error {
	if f.httpServer == nil {
		return nil
	}
	return f.httpServer.Shutdown(ctx)
}

func (f *Frontend) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		HandleNotFound(w, "not found", nil)
		return
	}
	if r.Method != http.MethodGet {
		HandleBadRequest(w, "method not allowed", nil)
		return
	}

	writeJSON(w, http.StatusOK, RootResponse{
		Message: "Welcome to " + f.title,
		Version: f.version,
	})
}

func (f *Frontend) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if f.engine() == nil {
		status = "initializing"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (f *Frontend) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		HandleBadRequest(w, "method not allowed", nil)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		HandleBadRequest(w, "invalid request body", err)
		return
	}
	if req.Query == "" {
		HandleBadRequest(w, "query is required", nil)
		return
	}
	if len(req.Query) > maxQueryLength {
		HandleBadRequest(w, fmt.Sprintf("query exceeds %d characters", maxQueryLength), nil)
		return
	}

	engine := f.engine()
	if engine == nil {
		HandleServiceUnavailable(w, "Service not initialized. Please try again in a few moments.", nil)
		return
	}

	start := time.Now()
	result, err := engine.ProcessQuery(r.Context(), req.Query)
	if err != nil {
		f.log.Error("Error processing chat request: %v", err)
		HandleInternalError(w, "An error occurred while processing your request", err)
		return
	}
	f.log.Info("Query processed in %.2f seconds", time.Since(start).Seconds())

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: result.Response, Sources: sources})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// corsMiddleware allows cross-origin browser clients to call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
