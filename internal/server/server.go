package server

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/localrivet/gomcp/server"

	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/logger"
	"github.com/joejoinerr/CrawlnChat/internal/router"
	"github.com/joejoinerr/CrawlnChat/internal/telemetry"
	"github.com/joejoinerr/CrawlnChat/internal/tools"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
)

// LifecycleState tracks where the server is in its startup sequence.
type LifecycleState int32

const (
	StateUninitialized LifecycleState = iota
	StateInitializing
	StateServing
	StateFailed
)

// String returns a readable name for the state.
func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateServing:
		return "serving"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures an MCPChatToolServer.
type Options struct {
	// Name identifies the server in the protocol handshake.
	Name string

	// Version and Description are handshake metadata, logged at startup.
	Version     string
	Description string

	// Engine is an optional pre-built query engine. When nil, Factory is
	// used to construct one during Start.
	Engine  router.QueryEngine
	Factory EngineFactory
}

// MCPChatToolServer implements the ChatToolServer interface. It exposes the
// chat_with_content tool over a stdio transport and forwards each call to
// the query engine held by its EngineHandle.
type MCPChatToolServer struct {
	opts      Options
	handle    *EngineHandle
	mcpServer server.Server
	state     atomic.Int32
	metrics   *telemetry.MetricsCollector
	log       *logger.Logger
}

// NewChatToolServer creates a new MCPChatToolServer instance.
func NewChatToolServer(opts Options) *MCPChatToolServer {
	if opts.Name == "" {
		opts.Name = "crawlnchat"
	}
	return &MCPChatToolServer{
		opts:    opts,
		handle:  NewEngineHandle(),
		metrics: telemetry.Default(),
		log:     logger.GetLogger("mcp-server"),
	}
}

// Handle exposes the engine handle, mainly for tests and embedding callers.
func (s *MCPChatToolServer) Handle() *EngineHandle {
	return s.handle
}

// State returns the server's current lifecycle state.
func (s *MCPChatToolServer) State() LifecycleState {
	return LifecycleState(s.state.Load())
}

func (s *MCPChatToolServer) setState(state LifecycleState) {
	s.state.Store(int32(state))
}

// Initialize registers the tool contract with the protocol runtime. It runs
// before Start; the tool is callable as soon as the transport loop begins,
// even if the engine is not yet ready.
func (s *MCPChatToolServer) Initialize() error {
	s.log.Info("Initializing MCP chat tool server: %s %s", s.opts.Name, s.opts.Version)

	srv := server.NewServer(s.opts.Name)
	srv = srv.Tool(tools.ToolChatWithContent,
		"Ask a question about the crawled website content",
		s.handleChatWithContent)

	s.mcpServer = srv
	return nil
}

// Start initializes the query engine, suppresses console logging, and hands
// control to the stdio transport loop. It blocks until the transport loop
// exits. Any failure before the loop begins serving is fatal and returned to
// the caller.
func (s *MCPChatToolServer) Start() error {
	if s.mcpServer == nil {
		s.setState(StateFailed)
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	s.setState(StateInitializing)

	if _, err := s.handle.Initialize(s.opts.Engine, s.opts.Factory); err != nil {
		s.setState(StateFailed)
		return err
	}

	// The transport shares stdio with default console logging; stray output
	// corrupts protocol framing. File sinks stay verbose.
	s.log.Info("Entering stdio transport loop, console logging suppressed")
	logger.SuppressConsole()

	stdioServer := s.mcpServer.AsStdio()
	s.setState(StateServing)

	if err := stdioServer.Run(); err != nil {
		s.setState(StateFailed)
		return errortypes.TransportError(err, "stdio transport loop failed")
	}
	return nil
}

// Stop gracefully shuts down the MCP server.
func (s *MCPChatToolServer) Stop() error {
	s.log.Info("Stopping MCP chat tool server")
	// The transport loop exits when stdin is closed.
	return nil
}

// handleChatWithContent handles the chat_with_content MCP tool call. Every
// failure is converted into an error-shaped tool response; nothing
// propagates past the tool boundary.
func (s *MCPChatToolServer) handleChatWithContent(ctx *server.Context, req tools.ChatRequest) (tools.ChatResponse, error) {
	s.metrics.RecordTimestamp(telemetry.MetricLastToolCall)

	engine := s.handle.Get()
	if engine == nil {
		s.log.Warn("chat_with_content called before engine initialization")
		return tools.ErrorResponse("Service not initialized"), nil
	}

	result, err := engine.ProcessQuery(context.Background(), req.Query)
	if err != nil {
		s.log.Error("Failed to process query %q: %v", req.Query, err)
		return tools.ErrorResponse("Error processing query: " + err.Error()), nil
	}

	return tools.SuccessResponse(result.Response, result.Sources), nil
}
