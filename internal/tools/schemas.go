// Package tools defines the tool names and request/response schemas
// exposed by the CrawlnChat MCP server.
package tools

import (
	"encoding/json"
)

const (
	// ToolChatWithContent is the name of the chat_with_content MCP tool
	ToolChatWithContent = "chat_with_content"
)

// ChatRequest defines the input schema for the chat_with_content tool
type ChatRequest struct {
	// Query is the user's natural-language question
	Query string `json:"query"`
}

// ChatResponse defines the output schema for the chat_with_content tool.
// A response carries exactly one of two shapes: {response, sources} on
// success, or {error} on failure. Sources is always present on success,
// defaulting to an empty list.
type ChatResponse struct {
	Response string
	Sources  []string
	Error    string
}

// SuccessResponse builds a success-shaped ChatResponse.
func SuccessResponse(response string, sources []string) ChatResponse {
	if sources == nil {
		sources = []string{}
	}
	return ChatResponse{Response: response, Sources: sources}
}

// ErrorResponse builds an error-shaped ChatResponse.
func ErrorResponse(message string) ChatResponse {
	return ChatResponse{Error: message}
}

// IsError reports whether the response carries the error shape.
func (r ChatResponse) IsError() bool {
	return r.Error != ""
}

// MarshalJSON emits either {"error": ...} or {"response": ..., "sources": [...]},
// never both and never a missing sources field.
func (r ChatResponse) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: r.Error})
	}

	sources := r.Sources
	if sources == nil {
		sources = []string{}
	}
	return json.Marshal(struct {
		Response string   `json:"response"`
		Sources  []string `json:"sources"`
	}{Response: r.Response, Sources: sources})
}

// UnmarshalJSON accepts either shape and populates the matching fields.
func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Response string   `json:"response"`
		Sources  []string `json:"sources"`
		Error    string   `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Response = raw.Response
	r.Sources = raw.Sources
	r.Error = raw.Error
	return nil
}
