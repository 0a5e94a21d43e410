package llm

import (
	"errors"
	"net/http"

	"github.com/cvenhancer/core/internal/domain"
)

// classifyHTTPError maps a provider's HTTP status code to a tagged
// domain.Error so callers (C5 processors) can uniformly decide retry vs.
// terminal failure without knowing which provider answered.
func classifyHTTPError(provider string, status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.Wrap(domain.CodeAIQuotaExceeded, provider+": quota or rate limit exceeded", 429, errors.New(body)).WithRetry(0)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return domain.Wrap(domain.CodeAITimeout, provider+": request timed out", 504, errors.New(body)).WithRetry(0)
	case status >= 500:
		return domain.Wrap(domain.CodeAIError, provider+": upstream error", 502, errors.New(body)).WithRetry(0)
	case status >= 400:
		return domain.Wrap(domain.CodeAIInvalidResponse, provider+": request rejected", 422, errors.New(body))
	default:
		return domain.Wrap(domain.CodeAIError, provider+": unexpected response", 502, errors.New(body))
	}
}

// errInvalidJSON wraps a repair-pass failure: the provider's response could
// not be coerced into valid JSON even after cleaning.
func errInvalidJSON(provider string, cause error) error {
	return domain.Wrap(domain.CodeAIInvalidResponse, provider+": response is not valid JSON", 422, cause)
}
