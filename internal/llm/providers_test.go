package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIAnswer(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusOK,
		ResponseBody: map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Paris is the capital of France."}},
			},
		},
	})
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	answer, err := provider.Answer(context.Background(), "You answer questions.", "What is the capital of France?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "Paris is the capital of France." {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestOpenAIAnswerAPIError(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusUnauthorized,
		ResponseBody: map[string]interface{}{
			"error": map[string]string{
				"type":    "invalid_request_error",
				"message": "Incorrect API key provided",
			},
		},
	})
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIKey: "bad-key", BaseURL: server.URL})

	_, err := provider.Answer(context.Background(), "", "question")
	if err == nil {
		t.Fatal("expected API error")
	}
	if !strings.Contains(err.Error(), "invalid_request_error") {
		t.Errorf("expected error type in message, got: %v", err)
	}
}

func TestOpenAIAnswerMissingKey(t *testing.T) {
	provider := NewOpenAIProvider(Config{})
	if _, err := provider.Answer(context.Background(), "", "question"); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestAnthropicAnswer(t *testing.T) {
	var gotVersion, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("Anthropic-Version")
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"The answer is 42."}]}`))
	}))
	defer server.Close()

	provider := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	answer, err := provider.Answer(context.Background(), "system", "prompt")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "The answer is 42." {
		t.Errorf("unexpected answer: %q", answer)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("expected Anthropic-Version header %q, got %q", anthropicVersion, gotVersion)
	}
	if gotKey != "test-key" {
		t.Errorf("expected X-API-Key header, got %q", gotKey)
	}
}

func TestAnthropicAnswerEmptyContent(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode:   http.StatusOK,
		ResponseBody: map[string]interface{}{"content": []map[string]string{}},
	})
	defer server.Close()

	provider := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if _, err := provider.Answer(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestGoogleAnswer(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusOK,
		ResponseBody: map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []map[string]string{{"text": "Gemini says hello."}},
					},
				},
			},
		},
	})
	defer server.Close()

	provider := NewGoogleProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	answer, err := provider.Answer(context.Background(), "system", "prompt")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "Gemini says hello." {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestGoogleAnswerAPIError(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusBadRequest,
		ResponseBody: map[string]interface{}{
			"error": map[string]interface{}{
				"code":    400,
				"message": "API key not valid",
				"status":  "INVALID_ARGUMENT",
			},
		},
	})
	defer server.Close()

	provider := NewGoogleProvider(Config{APIKey: "bad-key", BaseURL: server.URL})
	_, err := provider.Answer(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("expected API error")
	}
	if !strings.Contains(err.Error(), "INVALID_ARGUMENT") {
		t.Errorf("expected status in error, got: %v", err)
	}
}

func TestXAIAnswer(t *testing.T) {
	server := MockServer(t, MockResponseConfig{
		StatusCode: http.StatusOK,
		ResponseBody: map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Grok answer."}},
			},
		},
	})
	defer server.Close()

	provider := NewXAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	answer, err := provider.Answer(context.Background(), "system", "prompt")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "Grok answer." {
		t.Errorf("unexpected answer: %q", answer)
	}
}
