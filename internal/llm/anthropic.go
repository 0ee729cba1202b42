package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider implements the AnswerProvider interface for Anthropic's Claude models
type AnthropicProvider struct {
	Config
	httpClient *http.Client
}

// AnthropicMessage represents a message in Anthropic's chat format
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicRequest represents a request to Anthropic's API
type AnthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []AnthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

// AnthropicResponse represents a response from Anthropic's API
type AnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicProvider creates a new instance of the Anthropic provider
func NewAnthropicProvider(config Config) *AnthropicProvider {
	return &AnthropicProvider{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Answer implements the AnswerProvider interface for Anthropic
func (p *AnthropicProvider) Answer(ctx context.Context, system, prompt string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("Anthropic API key not provided")
	}

	model := p.ModelID
	if model == "" {
		model = "claude-3-haiku-20240307"
	}

	url := p.BaseURL
	if url == "" {
		url = anthropicAPIURL
	}

	reqBody := AnthropicRequest{
		Model:  model,
		System: system,
		Messages: []AnthropicMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: DefaultMaxTokens,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(reqJSON)))
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", p.APIKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request to Anthropic API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %v", err)
	}

	var anthropicResponse AnthropicResponse
	if err := json.Unmarshal(respBody, &anthropicResponse); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %v", err)
	}

	if anthropicResponse.Error != nil {
		return "", fmt.Errorf("Anthropic API error: %s: %s",
			anthropicResponse.Error.Type, anthropicResponse.Error.Message)
	}

	for _, block := range anthropicResponse.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("empty response from Anthropic API")
}
