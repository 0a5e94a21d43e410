package providers

import (
	"context"
	"net/http"
)

// Mock implements Provider without any network call, for local development
// and tests (AI_PROVIDER=mock). It echoes a minimal valid JSON object so
// downstream schema validation has something well-formed to exercise.
type Mock struct {
	Fixed string
}

func (p *Mock) Name() string { return "mock" }

// Complete implements Provider.
func (p *Mock) Complete(_ context.Context, _ *http.Client, req ChatRequest) (ChatResponse, error) {
	text := p.Fixed
	if text == "" {
		text = `{}`
	}
	return ChatResponse{Text: text, PromptTokens: len(req.System) / 4, CompletionTokens: len(text) / 4}, nil
}
