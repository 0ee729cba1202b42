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
	googleAPIURLFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"
)

// GoogleProvider implements the AnswerProvider interface for Google's Gemini models
type GoogleProvider struct {
	Config
	httpClient *http.Client
}

// GooglePart represents a content part in Google's API format
type GooglePart struct {
	Text string `json:"text"`
}

// GoogleContent represents a content block in Google's API format
type GoogleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GooglePart `json:"parts"`
}

// GoogleRequest represents a request to Google's generateContent API
type GoogleRequest struct {
	Contents          []GoogleContent `json:"contents"`
	SystemInstruction *GoogleContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		MaxOutputTokens int `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

// GoogleResponse represents a response from Google's generateContent API
type GoogleResponse struct {
	Candidates []struct {
		Content GoogleContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGoogleProvider creates a new instance of the Google provider
func NewGoogleProvider(config Config) *GoogleProvider {
	return &GoogleProvider{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

// Answer implements the AnswerProvider interface for Google
func (p *GoogleProvider) Answer(ctx context.Context, system, prompt string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("Google API key not provided")
	}

	model := p.ModelID
	if model == "" {
		model = "gemini-1.5-flash"
	}

	url := p.BaseURL
	if url == "" {
		url = fmt.Sprintf(googleAPIURLFormat, model, p.APIKey)
	}

	reqBody := GoogleRequest{
		Contents: []GoogleContent{
			{Role: "user", Parts: []GooglePart{{Text: prompt}}},
		},
	}
	if system != "" {
		reqBody.SystemInstruction = &GoogleContent{
			Parts: []GooglePart{{Text: system}},
		}
	}
	reqBody.GenerationConfig.MaxOutputTokens = DefaultMaxTokens

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(reqJSON)))
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request to Google API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %v", err)
	}

	var googleResponse GoogleResponse
	if err := json.Unmarshal(respBody, &googleResponse); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %v", err)
	}

	if googleResponse.Error != nil {
		return "", fmt.Errorf("Google API error: %s: %s",
			googleResponse.Error.Status, googleResponse.Error.Message)
	}

	if len(googleResponse.Candidates) == 0 || len(googleResponse.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Google API")
	}

	text := googleResponse.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("empty response from Google API")
	}

	return text, nil
}
