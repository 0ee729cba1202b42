package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockResponseConfig holds configuration for mock API responses
type MockResponseConfig struct {
	StatusCode   int
	ResponseBody interface{}
	Headers      map[string]string
}

// MockServer creates a test server that returns the configured response
func MockServer(t *testing.T, config MockResponseConfig) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range config.Headers {
			w.Header().Set(k, v)
		}

		if _, exists := config.Headers["Content-Type"]; !exists {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(config.StatusCode)

		if config.ResponseBody != nil {
			var respBytes []byte
			var err error

			switch body := config.ResponseBody.(type) {
			case string:
				respBytes = []byte(body)
			case []byte:
				respBytes = body
			default:
				respBytes, err = json.Marshal(body)
				if err != nil {
					t.Fatalf("Failed to marshal mock response: %v", err)
				}
			}

			if _, err := w.Write(respBytes); err != nil {
				t.Fatalf("Failed to write response body: %v", err)
			}
		}
	}))
}

// TestProvider is a simple implementation of AnswerProvider for testing
type TestProvider struct {
	name         string
	returnError  error
	returnString string
}

// NewTestProvider creates a new TestProvider
func NewTestProvider(name string, returnString string, returnError error) *TestProvider {
	return &TestProvider{
		name:         name,
		returnString: returnString,
		returnError:  returnError,
	}
}

// Name returns the provider name
func (p *TestProvider) Name() string {
	return p.name
}

// Answer returns the configured string or error
func (p *TestProvider) Answer(_ context.Context, _, _ string) (string, error) {
	return p.returnString, p.returnError
}

// CapturingProvider is a provider that captures the inputs for testing
type CapturingProvider struct {
	name           string
	returnError    error
	returnString   string
	capturedSystem string
	capturedPrompt string
}

// NewCapturingProvider creates a new CapturingProvider
func NewCapturingProvider(name, returnString string, returnError error) *CapturingProvider {
	return &CapturingProvider{
		name:         name,
		returnString: returnString,
		returnError:  returnError,
	}
}

// Name returns the provider name
func (p *CapturingProvider) Name() string {
	return p.name
}

// Answer captures inputs and returns the configured response
func (p *CapturingProvider) Answer(_ context.Context, system, prompt string) (string, error) {
	p.capturedSystem = system
	p.capturedPrompt = prompt
	return p.returnString, p.returnError
}

// GetCapturedSystem returns the system prompt that was passed to Answer
func (p *CapturingProvider) GetCapturedSystem() string {
	return p.capturedSystem
}

// GetCapturedPrompt returns the user prompt that was passed to Answer
func (p *CapturingProvider) GetCapturedPrompt() string {
	return p.capturedPrompt
}
