package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_AssistantPlanTimeoutMatchesGlobalDefault(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10000, cfg.Purposes[PurposeAssistantPlan].TimeoutMs)
}

func TestLoadConfig_PurposeTimeoutOverrides(t *testing.T) {
	t.Setenv("AAWO_LLM_TIMEOUT_MS", "9000")
	t.Setenv("AAWO_LLM_ASSISTANT_PLAN_TIMEOUT_MS", "15000")
	t.Setenv("AAWO_LLM_NLI_TIMEOUT_MS", "7000")

	cfg := LoadConfig()

	assert.Equal(t, 9000, cfg.TimeoutMs)
	assert.Equal(t, 15000, cfg.PurposeTimeout(PurposeAssistantPlan))
	assert.Equal(t, 7000, cfg.PurposeTimeout(PurposeNLI))
	assert.Equal(t, 12000, cfg.PurposeTimeout(PurposeActionExtract))
}

func TestLoadConfig_InvalidPurposeTimeoutOverrideIgnored(t *testing.T) {
	t.Setenv("AAWO_LLM_ASSISTANT_PLAN_TIMEOUT_MS", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, 10000, cfg.PurposeTimeout(PurposeAssistantPlan))
}

func TestLoadConfig_FallbackModelsParsed(t *testing.T) {
	t.Setenv("AAWO_LLM_FALLBACK_MODELS", "llama3.2, mistral ,")

	cfg := LoadConfig()

	assert.Equal(t, []string{"llama3.2", "mistral"}, cfg.FallbackModels)
	assert.Equal(t, []string{"llama3.2", "llama3.2", "mistral"}, cfg.Models())
}
