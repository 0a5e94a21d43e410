package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cvenhancer/core/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable,omitempty"`
	RetryAfter int64  `json:"retryAfterMs,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates a domain.Error into the §7 JSON error envelope;
// anything that doesn't carry a tagged code falls back to 500 UNKNOWN_ERROR.
func writeError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		writeJSON(w, derr.StatusCode, errorEnvelope{Error: apiError{
			Code:       derr.Code,
			Message:    derr.Message,
			Retryable:  derr.Retryable,
			RetryAfter: derr.RetryAfter.Milliseconds(),
		}})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: apiError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
	}})
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, domain.ErrInvalid(message))
}
