package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// responseRepairer cleans and repairs a raw LLM completion into parseable
// JSON. Providers routinely wrap JSON in markdown fences, use curly quotes,
// or trail a comma before a closing brace; this performs the same staged
// cleanup a production client needs before ever handing the result to a
// schema validator.
type responseRepairer struct{}

func newResponseRepairer() *responseRepairer { return &responseRepairer{} }

var (
	boldRe  = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	trailRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// Repair runs the full cleanup pipeline and returns the resulting string
// along with whether it parses as valid JSON.
func (r *responseRepairer) Repair(raw string) (string, bool) {
	s := r.stripFences(raw)
	s = r.extractObject(s)
	s = r.fixCommonIssues(s)
	return s, r.isValidJSON(s)
}

func (r *responseRepairer) stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject finds the outermost {...} or [...] span, discarding any
// prose a chatty model prepended or appended to the JSON payload.
func (r *responseRepairer) extractObject(s string) string {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	open, close := byte('{'), byte('}')
	if s[start] == '[' {
		open, close = '[', ']'
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

func (r *responseRepairer) fixCommonIssues(s string) string {
	s = strings.ReplaceAll(s, "“", "\"")
	s = strings.ReplaceAll(s, "”", "\"")
	s = boldRe.ReplaceAllString(s, `"$1"`)
	s = trailRe.ReplaceAllString(s, "$1")
	return s
}

func (r *responseRepairer) isValidJSON(s string) bool {
	var v any
	return json.Unmarshal([]byte(s), &v) == nil
}
