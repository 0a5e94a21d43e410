// Package llm implements the C3 AI adapter: provider routing, JSON response
// repair, and retry/backoff around whichever backend a task is configured
// to use.
package llm

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/llm/providers"
	"github.com/cvenhancer/core/internal/observability"
)

// Adapter implements domain.AIClient, routing each call to the provider
// configured for AIProvider (or a task-specific override host) and
// repairing the response into valid JSON before returning it.
type Adapter struct {
	cfg      config.Config
	hc       *http.Client
	repairer *responseRepairer
	// task is set by WithTask to apply a task-specific host/model override;
	// empty uses cfg.AIProvider's default for every call.
	task string
}

// New builds an Adapter using cfg's default provider.
func New(cfg config.Config) *Adapter {
	return &Adapter{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   90 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		repairer: newResponseRepairer(),
	}
}

// WithTask returns a copy of the adapter scoped to task ("parse", "optimize",
// "ats"), so its per-task host/model override from config.Config applies.
func (a *Adapter) WithTask(task string) *Adapter {
	cp := *a
	cp.task = task
	return &cp
}

func (a *Adapter) providerName() string {
	switch a.task {
	case "parse":
		if a.cfg.ParseAIHost != "" {
			return a.cfg.ParseAIHost
		}
	case "optimize":
		if a.cfg.OptimizeAIHost != "" {
			return a.cfg.OptimizeAIHost
		}
	case "ats":
		if a.cfg.ATSAIHost != "" {
			return a.cfg.ATSAIHost
		}
	}
	return strings.ToLower(a.cfg.AIProvider)
}

func (a *Adapter) modelOverride() string {
	switch a.task {
	case "parse":
		return a.cfg.ParseAIModel
	case "optimize":
		return a.cfg.OptimizeAIModel
	case "ats":
		return a.cfg.ATSAIModel
	}
	return ""
}

func (a *Adapter) provider() (providers.Provider, string, error) {
	name := a.providerName()
	model := a.modelOverride()
	switch name {
	case "openai":
		if model == "" {
			model = a.cfg.OpenAIModel
		}
		return &providers.OpenAICompatible{DisplayName: "openai", BaseURL: a.cfg.OpenAIBaseURL, APIKey: a.cfg.OpenAIAPIKey}, model, nil
	case "anthropic":
		if model == "" {
			model = a.cfg.AnthropicModel
		}
		return &providers.Anthropic{APIKey: a.cfg.AnthropicAPIKey}, model, nil
	case "gemini":
		if model == "" {
			model = a.cfg.GeminiModel
		}
		return &providers.Gemini{APIKey: a.cfg.GeminiAPIKey}, model, nil
	case "groq":
		if model == "" {
			model = a.cfg.GroqModel
		}
		return &providers.OpenAICompatible{DisplayName: "groq", BaseURL: a.cfg.GroqBaseURL, APIKey: a.cfg.GroqAPIKey}, model, nil
	case "mock":
		return &providers.Mock{}, "mock", nil
	default:
		return nil, "", domain.NewError(domain.CodeAIError, "unknown AI provider "+name, 500)
	}
}

func (a *Adapter) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxInterval, multiplier := a.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// CompleteJSON implements domain.AIClient: sends the prompt pair to the
// configured provider, retrying transient failures with exponential
// backoff, and repairs the response into valid JSON before returning.
func (a *Adapter) CompleteJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	p, model, err := a.provider()
	if err != nil {
		return "", err
	}
	task := a.task
	if task == "" {
		task = "default"
	}

	var result string
	start := time.Now()
	op := func() error {
		resp, err := p.Complete(ctx, a.hc, providers.ChatRequest{
			System: systemPrompt, User: userPrompt, Model: model, MaxTokens: maxTokens,
		})
		if err != nil {
			if httpErr, ok := err.(*providers.HTTPError); ok {
				classified := classifyHTTPError(p.Name(), httpErr.StatusCode, httpErr.Body)
				if domain.IsRetryable(classified) {
					return classified
				}
				return backoff.Permanent(classified)
			}
			return err
		}

		repaired, valid := a.repairer.Repair(resp.Text)
		if !valid {
			return backoff.Permanent(errInvalidJSON(p.Name(), nil))
		}
		result = repaired
		observability.RecordAITokenUsage(p.Name(), "prompt", model, resp.PromptTokens)
		observability.RecordAITokenUsage(p.Name(), "completion", model, resp.CompletionTokens)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("llm call retrying", slog.String("provider", p.Name()), slog.Any("error", err), slog.Duration("wait", wait))
	}
	err = backoff.RetryNotify(op, a.backoffConfig(), notify)
	observability.AIRequestsTotal.WithLabelValues(p.Name(), task).Inc()
	observability.AIRequestDuration.WithLabelValues(p.Name(), task).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return result, nil
}
