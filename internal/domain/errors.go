// Package domain defines core entities, ports, and domain-specific errors.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error is the tagged error value every layer of the core returns. It groups
// codes by domain the way spec §7 describes: generic 1xxx, jobs 2xxx, files
// 3xxx, CV 4xxx, generation 41xx, DB 5xxx, external services 6xxx, auth 7xxx,
// user 8xxx, webhook 9xxx, ATS 10xxx, optimize 11xxx, parsing 12xxx, version 13xxx.
type Error struct {
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	RetryAfter time.Duration
	Context    map[string]any
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is/errors.As traverse into the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs a tagged domain.Error.
func NewError(code, message string, statusCode int) *Error {
	return &Error{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap attaches a tagged code to an underlying error, preserving it for errors.As.
func Wrap(code, message string, statusCode int, cause error) *Error {
	return &Error{Code: code, Message: message, StatusCode: statusCode, Cause: cause}
}

// WithRetry marks an error as retryable, optionally with a provider-specified delay.
func (e *Error) WithRetry(after time.Duration) *Error {
	e.Retryable = true
	e.RetryAfter = after
	return e
}

// WithContext attaches diagnostic context (never secrets) to the error.
func (e *Error) WithContext(kv map[string]any) *Error {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	for k, v := range kv {
		e.Context[k] = v
	}
	return e
}

// IsRetryable reports whether err (or any error it wraps) is marked retryable.
func IsRetryable(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// CodeOf extracts the domain error code, or UNKNOWN_ERROR if err isn't tagged.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// Sentinel codes. Grouped per spec §7; the core only needs the subset it
// actually raises, not the full historical taxonomy of the source system.
const (
	// Generic (1xxx)
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeConflict        = "CONFLICT"
	CodeUnknown         = "UNKNOWN_ERROR"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"

	// Jobs (2xxx)
	CodeJobQueueError          = "JOB_QUEUE_ERROR"
	CodeJobMaxRetriesExceeded  = "JOB_MAX_RETRIES_EXCEEDED"
	CodeJobNotCancellable      = "JOB_NOT_CANCELLABLE"
	CodeJobTimeout             = "JOB_TIMEOUT"

	// Files (3xxx)
	CodeFileNotFound   = "FILE_NOT_FOUND"
	CodeFileInvalid    = "FILE_INVALID"
	CodeProviderError  = "PROVIDER_ERROR"

	// CV (4xxx)
	CodeCVNoFileToParse = "CV_NO_FILE_TO_PARSE"
	CodeCVParsingFailed = "CV_PARSING_FAILED"

	// Generation (41xx)
	CodeGenerationRenderFailed = "GENERATION_RENDER_FAILED"
	CodeGenerationEmptyOutput  = "GENERATION_EMPTY_OUTPUT"

	// DB (5xxx)
	CodeDBError = "DB_ERROR"

	// External services (6xxx)
	CodeAIQuotaExceeded   = "AI_QUOTA_EXCEEDED"
	CodeAITimeout         = "AI_TIMEOUT"
	CodeAIInvalidResponse = "AI_INVALID_RESPONSE"
	CodeAIError           = "AI_ERROR"

	// Auth (7xxx) — identity is opaque at this layer; only ownership checks live here.
	CodeUnauthorized = "UNAUTHORIZED"

	// User (8xxx)
	CodeUserLocked    = "USER_LOCKED"
	CodeUsageExceeded = "USAGE_LIMIT_EXCEEDED"

	// Webhook (9xxx)
	CodeWebhookSuspended  = "WEBHOOK_SUSPENDED"
	CodeWebhookDeliveryFailed = "WEBHOOK_DELIVERY_FAILED"

	// ATS (10xxx)
	CodeATSScoreOutOfRange = "ATS_SCORE_OUT_OF_RANGE"

	// Optimize (11xxx)
	CodeOptimizeNoChange = "OPTIMIZE_NO_CHANGE"

	// Parsing (12xxx)
	CodeParsingUnsupportedMIME = "PARSING_UNSUPPORTED_MIME"

	// Version (13xxx)
	CodeVersionConflict = "VERSION_CONFLICT"
)

// Convenience constructors used pervasively by services/processors.

// ErrNotFound builds a NOT_FOUND error; also used to mask ownership probing.
func ErrNotFound(resource string) *Error {
	return NewError(CodeNotFound, resource+" not found", 404)
}

// ErrForbidden builds a FORBIDDEN error; used interchangeably with NOT_FOUND
// so cross-user probes can't distinguish "doesn't exist" from "not yours".
func ErrForbidden(resource string) *Error {
	return NewError(CodeForbidden, resource+" not accessible", 404)
}

// ErrInvalid builds an INVALID_ARGUMENT error.
func ErrInvalid(message string) *Error {
	return NewError(CodeInvalidArgument, message, 400)
}

// ErrConflictf builds a CONFLICT error.
func ErrConflictf(format string, args ...any) *Error {
	return NewError(CodeConflict, fmt.Sprintf(format, args...), 409)
}
