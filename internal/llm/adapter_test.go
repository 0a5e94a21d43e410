package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/config"
)

func testConfig() config.Config {
	return config.Config{AppEnv: "test", AIProvider: "mock"}
}

func TestAdapter_CompleteJSON_MockProvider(t *testing.T) {
	a := New(testConfig())
	out, err := a.CompleteJSON(context.Background(), "system", "user", 100)
	require.NoError(t, err)
	require.Equal(t, "{}", out)
}

func TestAdapter_WithTask_IsolatesOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.ParseAIModel = "parse-model"
	cfg.OptimizeAIModel = "optimize-model"
	a := New(cfg)

	parseAdapter := a.WithTask("parse")
	optimizeAdapter := a.WithTask("optimize")

	require.Equal(t, "parse-model", parseAdapter.modelOverride())
	require.Equal(t, "optimize-model", optimizeAdapter.modelOverride())
	require.Empty(t, a.modelOverride(), "base adapter has no task and no override")
}

func TestAdapter_ProviderName_TaskHostOverride(t *testing.T) {
	cfg := testConfig()
	cfg.AIProvider = "openai"
	cfg.ATSAIHost = "anthropic"
	a := New(cfg)

	require.Equal(t, "openai", a.providerName())
	require.Equal(t, "anthropic", a.WithTask("ats").providerName())
}

func TestAdapter_Provider_UnknownNameErrors(t *testing.T) {
	cfg := testConfig()
	cfg.AIProvider = "not-a-real-provider"
	a := New(cfg)

	_, _, err := a.provider()
	require.Error(t, err)
}

func TestAdapter_Provider_ResolvesEachKnownBackend(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "gemini", "groq", "mock"} {
		cfg := testConfig()
		cfg.AIProvider = name
		a := New(cfg)
		p, _, err := a.provider()
		require.NoError(t, err)
		require.NotNil(t, p)
	}
}
