package vector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openaiEmbeddingsURL = "https://api.openai.com/v1/embeddings"

	embeddingRequestTimeout = 30 * time.Second
)

// OpenAIEmbedder implements the Embedder interface using OpenAI's embeddings API.
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

type openaiEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openaiEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIEmbedder creates a new OpenAIEmbedder for the given model.
// An empty model falls back to DefaultEmbeddingModel.
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIEmbedder{
		apiKey: apiKey,
		model:  model,
		apiURL: openaiEmbeddingsURL,
		httpClient: &http.Client{
			Timeout: embeddingRequestTimeout,
		},
	}
}

// Initialize verifies the embedder configuration.
func (e *OpenAIEmbedder) Initialize() error {
	if e.apiKey == "" {
		return fmt.Errorf("OpenAI API key not provided")
	}
	return nil
}

// CreateEmbedding requests an embedding for the given text.
func (e *OpenAIEmbedder) CreateEmbedding(text string) ([]float32, error) {
	reqBody := openaiEmbeddingRequest{
		Model: e.model,
		Input: text,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.apiURL, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.apiKey))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to OpenAI embeddings API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	var embResp openaiEmbeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %v", err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s: %s", embResp.Error.Type, embResp.Error.Message)
	}

	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("OpenAI API returned no embedding")
	}

	return embResp.Data[0].Embedding, nil
}
