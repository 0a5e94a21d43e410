// Package processor implements the four C5 job processors (parsing,
// optimization, ATS analysis, generation), each a queue.Processor wired
// against the C1-C3/C7 ports: ObjectStore, TextExtractor, AIClient,
// Rasterizer, and version.Service.
package processor

import (
	"encoding/json"
	"fmt"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/version"
)

// Processors bundles every dependency the four job handlers need. One
// instance is built at startup and its methods are registered against
// queue.Pool per domain.QueueName.
type Processors struct {
	CVs         domain.CVRepository
	Users       domain.UserRepository
	Versions    *version.Service
	VersionRepo domain.VersionRepository
	Parsing     domain.ParsingRepository
	ATSRepo     domain.ATSRepository
	Generations domain.GenerationRepository
	Objects     domain.ObjectStore
	Extractor   domain.TextExtractor
	Rasterizer  domain.Rasterizer

	// One AIClient per task, each already scoped via llm.Adapter.WithTask so
	// per-task host/model overrides apply without this package importing llm.
	ParseAI    domain.AIClient
	OptimizeAI domain.AIClient
	ATSAI      domain.AIClient
}

// decodeData round-trips j.Data (a map[string]any, as stored/loaded from
// JSONB) through JSON into a concrete struct — the same approach the
// teacher's handlers use to turn a loosely-typed payload into a typed one.
func decodeData(data map[string]any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("processor: marshal job data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("processor: decode job data: %w", err)
	}
	return nil
}

// marshalContent renders content as compact JSON for embedding into a
// prompt's {{.content}} template variable.
func marshalContent(c domain.Content) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("processor: marshal content: %w", err)
	}
	return string(raw), nil
}

// decodeJSON parses a repaired LLM JSON response into out, wrapping any
// failure as a non-retryable AI-invalid-response domain error since a
// schema mismatch won't be fixed by retrying the same prompt.
func decodeJSON(raw string, out any) error {
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return domain.NewError(domain.CodeAIInvalidResponse, "model response did not match expected schema: "+err.Error(), 502)
	}
	return nil
}
