// Package providers implements the wire formats of each supported LLM
// backend behind a single ChatRequest/ChatResponse shape the llm adapter
// drives uniformly.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// ChatRequest is a provider-agnostic single-turn completion request.
type ChatRequest struct {
	System    string
	User      string
	Model     string
	MaxTokens int
}

// ChatResponse carries the completion text plus token accounting for
// observability.
type ChatResponse struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// HTTPError is returned by a Provider when the upstream responds with a
// non-2xx status, carrying enough detail for the caller to classify it.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Provider is one backend's wire adapter.
type Provider interface {
	Name() string
	Complete(ctx context.Context, hc *http.Client, req ChatRequest) (ChatResponse, error)
}

func readBody(r io.Reader, limit int64) string {
	b, _ := io.ReadAll(io.LimitReader(r, limit))
	return string(b)
}
