package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic implements Provider against the Messages API via the official SDK.
type Anthropic struct {
	BaseURL string
	APIKey  string
}

func (p *Anthropic) Name() string { return "anthropic" }

// Complete implements Provider.
func (p *Anthropic) Complete(ctx context.Context, hc *http.Client, req ChatRequest) (ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(p.APIKey), option.WithHTTPClient(hc), option.WithMaxRetries(0)}
	if p.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.User))},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return ChatResponse{}, &HTTPError{Provider: "anthropic", StatusCode: apiErr.StatusCode, Body: apiErr.Error()}
		}
		return ChatResponse{}, fmt.Errorf("anthropic: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return ChatResponse{}, fmt.Errorf("anthropic: empty content")
	}

	return ChatResponse{
		Text:             text.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}
