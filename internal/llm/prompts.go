package llm

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// promptTemplate is one versioned system/user prompt pair for a task. Version
// bumps when the wording changes in a way that could alter model output,
// so a stored Generation/AtsAnalysis row can record which version produced it.
type promptTemplate struct {
	Version int    `yaml:"version"`
	System  string `yaml:"system"`
	User    string `yaml:"user"`
}

type promptLibrary struct {
	Tasks map[string]promptTemplate `yaml:"tasks"`
}

var prompts = mustLoadPrompts()

func mustLoadPrompts() promptLibrary {
	var lib promptLibrary
	if err := yaml.Unmarshal(promptsYAML, &lib); err != nil {
		panic(fmt.Sprintf("llm: invalid embedded prompts.yaml: %v", err))
	}
	return lib
}

// Render fills task's user template with vars and returns
// (systemPrompt, userPrompt, version, error).
func Render(task string, vars map[string]any) (string, string, int, error) {
	t, ok := prompts.Tasks[task]
	if !ok {
		return "", "", 0, fmt.Errorf("llm: unknown prompt task %q", task)
	}
	tmpl, err := template.New(task).Parse(t.User)
	if err != nil {
		return "", "", 0, fmt.Errorf("llm: parse template %q: %w", task, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", "", 0, fmt.Errorf("llm: render template %q: %w", task, err)
	}
	return t.System, sb.String(), t.Version, nil
}
