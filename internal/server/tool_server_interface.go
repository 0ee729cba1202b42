// Package server provides the MCP server implementation for the CrawlnChat service.
package server

// ChatToolServer defines the interface for the MCP server that exposes the
// chat_with_content tool to protocol clients.
type ChatToolServer interface {
	// Initialize registers the tool contract with the protocol runtime.
	Initialize() error

	// Start initializes the backend and hands control to the transport loop.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}
