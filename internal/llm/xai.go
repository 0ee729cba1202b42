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
	xaiAPIURL = "https://api.x.ai/v1/chat/completions"
)

// XAIProvider implements the AnswerProvider interface for xAI's Grok models.
// The API is OpenAI-compatible, so the request and response shapes reuse the
// OpenAI message types.
type XAIProvider struct {
	Config
	httpClient *http.Client
}

// NewXAIProvider creates a new instance of the xAI provider
func NewXAIProvider(config Config) *XAIProvider {
	return &XAIProvider{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name
func (p *XAIProvider) Name() string {
	return ProviderXAI
}

// Answer implements the AnswerProvider interface for xAI
func (p *XAIProvider) Answer(ctx context.Context, system, prompt string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("xAI API key not provided")
	}

	model := p.ModelID
	if model == "" {
		model = "grok-beta"
	}

	url := p.BaseURL
	if url == "" {
		url = xaiAPIURL
	}

	reqBody := OpenAIRequest{
		Model: model,
		Messages: []OpenAIMessage{
			{Role: "system", Content: system},
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
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request to xAI API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %v", err)
	}

	var xaiResponse OpenAIResponse
	if err := json.Unmarshal(respBody, &xaiResponse); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %v", err)
	}

	if xaiResponse.Error != nil {
		return "", fmt.Errorf("xAI API error: %s: %s",
			xaiResponse.Error.Type, xaiResponse.Error.Message)
	}

	if len(xaiResponse.Choices) == 0 || xaiResponse.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from xAI API")
	}

	return xaiResponse.Choices[0].Message.Content, nil
}
