package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_Parse(t *testing.T) {
	system, user, version, err := Render("parse", map[string]any{"mimeType": "application/pdf", "text": "John Doe"})
	require.NoError(t, err)
	require.NotEmpty(t, system)
	require.Contains(t, user, "John Doe")
	require.Contains(t, user, "application/pdf")
	require.Equal(t, 1, version)
}

func TestRender_Optimize(t *testing.T) {
	_, user, _, err := Render("optimize", map[string]any{
		"jobTitle": "Engineer", "jobDescription": "Build things", "content": "{}", "instructions": "be concise",
	})
	require.NoError(t, err)
	require.Contains(t, user, "Engineer")
	require.Contains(t, user, "be concise")
}

func TestRender_UnknownTask(t *testing.T) {
	_, _, _, err := Render("not-a-task", nil)
	require.Error(t, err)
}

func TestRender_EveryATSTask(t *testing.T) {
	for _, task := range []string{"ats_compatibility", "ats_keyword_analysis", "ats_comprehensive"} {
		_, _, version, err := Render(task, map[string]any{"content": "{}", "jobDescription": "x"})
		require.NoErrorf(t, err, "task %s", task)
		require.Greater(t, version, 0)
	}
}
