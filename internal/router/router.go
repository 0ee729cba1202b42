// Package router implements the query engine that turns a user question
// into a grounded answer: it embeds the question, retrieves similar chunks
// from the content store, and asks an LLM provider chain to answer from the
// retrieved context.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joejoinerr/CrawlnChat/internal/contentstore"
	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/llm"
	"github.com/joejoinerr/CrawlnChat/internal/logger"
	"github.com/joejoinerr/CrawlnChat/internal/telemetry"
	"github.com/joejoinerr/CrawlnChat/internal/vector"
)

const (
	// SystemPrompt instructs the model to stay grounded in retrieved context.
	SystemPrompt = "You are a helpful assistant that generates detailed answers based on provided context. " +
		"Your response should be accurate, concise, and directly address the user's question. " +
		"It is critical that all answers are based on the information provided in the context."

	// DefaultAnswer is returned when no relevant content is found.
	DefaultAnswer = "I'm sorry, I couldn't find a good answer to your question."

	DefaultTopK       = 5
	DefaultMaxRetries = 2
	DefaultRetryDelay = 1 * time.Second
	DefaultMinScore   = 0.1
)

// Result is the outcome of a successfully processed query.
type Result struct {
	Response string
	Sources  []string
}

// QueryEngine processes natural-language queries against crawled content.
type QueryEngine interface {
	ProcessQuery(ctx context.Context, query string) (*Result, error)
}

// Options configures an AgentRouter.
type Options struct {
	Store     contentstore.ContentStore
	Embedder  vector.Embedder
	Providers []llm.AnswerProvider

	// TopK is the number of chunks retrieved per query across all namespaces.
	TopK int

	// MinScore filters out chunks whose similarity falls below the threshold.
	MinScore float64

	MaxRetries int
	RetryDelay time.Duration

	Metrics *telemetry.MetricsCollector
}

// AgentRouter is the default QueryEngine implementation. It searches every
// namespace in the content store and falls through an ordered provider chain
// until one produces an answer.
type AgentRouter struct {
	store      contentstore.ContentStore
	embedder   vector.Embedder
	providers  []llm.AnswerProvider
	topK       int
	minScore   float64
	maxRetries int
	retryDelay time.Duration
	metrics    *telemetry.MetricsCollector
	log        *logger.Logger
}

// NewAgentRouter creates a router from the given options. The store,
// embedder, and at least one provider are required.
func NewAgentRouter(opts Options) (*AgentRouter, error) {
	if opts.Store == nil {
		return nil, errortypes.ValidationError(nil, "content store is required")
	}
	if opts.Embedder == nil {
		return nil, errortypes.ValidationError(nil, "embedder is required")
	}
	if len(opts.Providers) == 0 {
		return nil, errortypes.ValidationError(nil, "at least one LLM provider is required")
	}

	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.Default()
	}

	return &AgentRouter{
		store:      opts.Store,
		embedder:   opts.Embedder,
		providers:  opts.Providers,
		topK:       opts.TopK,
		minScore:   opts.MinScore,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		metrics:    opts.Metrics,
		log:        logger.GetLogger("router"),
	}, nil
}

// ProcessQuery embeds the query, retrieves matching chunks, and generates a
// grounded answer. When nothing relevant is stored it returns DefaultAnswer
// with no sources rather than an error.
func (r *AgentRouter) ProcessQuery(ctx context.Context, query string) (*Result, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordTimer(telemetry.MetricQueryTime, time.Since(start))
	}()
	r.metrics.IncrementCounter(telemetry.MetricQueriesProcessed, 1)

	r.log.Info("Processing query: '%s'", query)

	queryEmbedding, err := r.embedQuery(query)
	if err != nil {
		r.metrics.IncrementCounter(telemetry.MetricQueriesFailed, 1)
		return nil, err
	}

	matches, err := r.retrieve(queryEmbedding)
	if err != nil {
		r.metrics.IncrementCounter(telemetry.MetricQueriesFailed, 1)
		return nil, err
	}

	if len(matches) == 0 {
		r.log.Info("No relevant content found for query")
		return &Result{Response: DefaultAnswer, Sources: []string{}}, nil
	}

	prompt := buildPrompt(query, matches)

	answer, err := r.answerWithFallback(ctx, prompt)
	if err != nil {
		r.metrics.IncrementCounter(telemetry.MetricQueriesFailed, 1)
		return nil, err
	}

	return &Result{
		Response: answer,
		Sources:  collectSources(matches),
	}, nil
}

func (r *AgentRouter) embedQuery(query string) ([]float32, error) {
	r.metrics.IncrementCounter(telemetry.MetricEmbeddingCalls, 1)

	embedding, err := r.embedder.CreateEmbedding(query)
	if err != nil {
		r.metrics.IncrementCounter(telemetry.MetricEmbeddingFailures, 1)
		return nil, errortypes.APIError(err, "failed to embed query")
	}
	return embedding, nil
}

// retrieve searches every namespace and keeps the best topK matches overall.
func (r *AgentRouter) retrieve(queryEmbedding []float32) ([]contentstore.SearchResult, error) {
	namespaces, err := r.store.ListNamespaces()
	if err != nil {
		return nil, errortypes.DatabaseError(err, "failed to list content namespaces")
	}

	var matches []contentstore.SearchResult
	for _, namespace := range namespaces {
		results, err := r.store.Query(namespace, queryEmbedding, r.topK)
		if err != nil {
			return nil, errortypes.DatabaseError(err, fmt.Sprintf("failed to search namespace %s", namespace))
		}
		for _, result := range results {
			if result.Score >= r.minScore {
				matches = append(matches, result)
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > r.topK {
		matches = matches[:r.topK]
	}

	return matches, nil
}

// answerWithFallback walks the provider chain in order, retrying each
// provider before moving on to the next.
func (r *AgentRouter) answerWithFallback(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for i, provider := range r.providers {
		if i > 0 {
			r.metrics.IncrementCounter(telemetry.MetricProviderFallbacks, 1)
			r.log.Warn("Falling back to provider %s", provider.Name())
		}

		answer, err := r.answerWithRetries(ctx, provider, prompt)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		r.log.Error("Provider %s failed: %v", provider.Name(), err)
	}

	return "", errortypes.APIError(lastErr, "all LLM providers failed")
}

func (r *AgentRouter) answerWithRetries(ctx context.Context, provider llm.AnswerProvider, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if attempt > 0 {
			time.Sleep(r.retryDelay * time.Duration(attempt))
		}

		r.metrics.IncrementCounter(telemetry.MetricProviderCalls, 1)
		callStart := time.Now()

		answer, err := provider.Answer(ctx, SystemPrompt, prompt)
		if err == nil {
			r.metrics.RecordTimer(telemetry.MetricProviderTime, time.Since(callStart))
			return answer, nil
		}

		r.metrics.IncrementCounter(telemetry.MetricProviderFailures, 1)
		lastErr = err
	}

	return "", lastErr
}

// buildPrompt formats the retrieved chunks and the question into a single
// user prompt for the LLM.
func buildPrompt(query string, matches []contentstore.SearchResult) string {
	var b strings.Builder

	b.WriteString("Context:\n\n")
	for _, match := range matches {
		if match.Title != "" {
			fmt.Fprintf(&b, "[%s] (%s)\n", match.Title, match.Source)
		} else {
			fmt.Fprintf(&b, "(%s)\n", match.Source)
		}
		b.WriteString(match.Text)
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(query)

	return b.String()
}

// collectSources returns the distinct source URLs of the matches, preserving
// relevance order.
func collectSources(matches []contentstore.SearchResult) []string {
	seen := make(map[string]bool)
	sources := []string{}

	for _, match := range matches {
		if match.Source == "" || seen[match.Source] {
			continue
		}
		seen[match.Source] = true
		sources = append(sources, match.Source)
	}

	return sources
}
