package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAICompatible implements Provider against the OpenAI chat/completions
// wire format, which Groq and most self-hosted gateways also speak.
type OpenAICompatible struct {
	DisplayName string
	BaseURL     string
	APIKey      string
}

func (p *OpenAICompatible) Name() string { return p.DisplayName }

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *openAIRespFormat   `json:"response_format,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRespFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete implements Provider.
func (p *OpenAICompatible) Complete(ctx context.Context, hc *http.Client, req ChatRequest) (ChatResponse, error) {
	body := openAIChatRequest{
		Model: req.Model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:      req.MaxTokens,
		ResponseFormat: &openAIRespFormat{Type: "json_object"},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%s: marshal request: %w", p.DisplayName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%s: build request: %w", p.DisplayName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := hc.Do(httpReq)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("%s: do request: %w", p.DisplayName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return ChatResponse{}, &HTTPError{Provider: p.DisplayName, StatusCode: resp.StatusCode, Body: readBody(resp.Body, 4096)}
	}

	var parsed openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ChatResponse{}, fmt.Errorf("%s: decode response: %w", p.DisplayName, err)
	}
	if len(parsed.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("%s: empty choices", p.DisplayName)
	}
	return ChatResponse{
		Text:             parsed.Choices[0].Message.Content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}
