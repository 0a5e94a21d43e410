package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Gemini implements Provider against the generateContent API via the
// official google.golang.org/genai SDK.
type Gemini struct {
	BaseURL string
	APIKey  string
}

func (p *Gemini) Name() string { return "gemini" }

// Complete implements Provider.
func (p *Gemini) Complete(ctx context.Context, hc *http.Client, req ChatRequest) (ChatResponse, error) {
	cfg := &genai.ClientConfig{
		APIKey:     p.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if p.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("gemini: build client: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(req.MaxTokens),
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.User), genConfig)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return ChatResponse{}, &HTTPError{Provider: "gemini", StatusCode: apiErr.Code, Body: apiErr.Message}
		}
		return ChatResponse{}, fmt.Errorf("gemini: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return ChatResponse{}, fmt.Errorf("gemini: empty candidates")
	}

	var promptTokens, completionTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return ChatResponse{
		Text:             text,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}
