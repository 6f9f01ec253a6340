package llm

import (
	"os"
	"strconv"
	"strings"
)

// Purpose identifies the kind of LLM task being performed, per the
// purpose-parameterized LLM contract.
type Purpose string

const (
	PurposeAssistantPlan   Purpose = "assistant_plan"
	PurposeNLI             Purpose = "nli"
	PurposeActionExtract   Purpose = "action_item_extract"
)

// PurposeConfig holds per-purpose LLM parameters.
type PurposeConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Enabled             bool
	LogCalls            bool
	Endpoint            string
	Model               string
	FallbackModels      []string // tried in order if Model's call is exhausted
	TimeoutMs           int
	MaxRetries          int
	TotalBudgetMs       int // across Model + all FallbackModels
	ConfidenceThreshold float64
	StrictLLM           bool // if true, fallback classifier is never used on LLM failure
	Purposes            map[Purpose]PurposeConfig
}

// DefaultConfig returns an LLMConfig with sensible defaults. LLM is disabled
// by default.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:             false,
		LogCalls:            false,
		Endpoint:            "http://localhost:11434",
		Model:               "llama3.2",
		TimeoutMs:           10000,
		MaxRetries:          1,
		TotalBudgetMs:       20000,
		ConfidenceThreshold: 0.75,
		Purposes: map[Purpose]PurposeConfig{
			PurposeAssistantPlan: {Temperature: 0.1, MaxTokens: 768, TimeoutMs: 10000},
			PurposeNLI:           {Temperature: 0.0, MaxTokens: 256, TimeoutMs: 6000},
			PurposeActionExtract: {Temperature: 0.2, MaxTokens: 1024, TimeoutMs: 12000},
		},
	}
}

// LoadConfig reads LLM configuration from environment variables, falling
// back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()

	if v := os.Getenv("AAWO_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("AAWO_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("AAWO_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("AAWO_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("AAWO_LLM_FALLBACK_MODELS"); v != "" {
		cfg.FallbackModels = splitNonEmpty(v, ",")
	}
	if v := os.Getenv("AAWO_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("AAWO_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("AAWO_LLM_TOTAL_BUDGET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TotalBudgetMs = n
		}
	}
	if v := os.Getenv("AAWO_LLM_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.ConfidenceThreshold = f
		}
	}
	if v := os.Getenv("AAWO_LLM_STRICT"); v != "" {
		cfg.StrictLLM, _ = strconv.ParseBool(v)
	}

	applyPurposeTimeoutEnv(&cfg, PurposeAssistantPlan, "AAWO_LLM_ASSISTANT_PLAN_TIMEOUT_MS")
	applyPurposeTimeoutEnv(&cfg, PurposeNLI, "AAWO_LLM_NLI_TIMEOUT_MS")
	applyPurposeTimeoutEnv(&cfg, PurposeActionExtract, "AAWO_LLM_ACTION_EXTRACT_TIMEOUT_MS")

	return cfg
}

func splitNonEmpty(v, sep string) []string {
	var out []string
	for _, part := range strings.Split(v, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// PurposeTimeout returns the effective timeout for a given purpose. Uses the
// purpose-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) PurposeTimeout(p Purpose) int {
	if pc, ok := c.Purposes[p]; ok && pc.TimeoutMs > 0 {
		return pc.TimeoutMs
	}
	return c.TimeoutMs
}

// Models returns the ordered list of models to try: primary then fallbacks.
func (c LLMConfig) Models() []string {
	return append([]string{c.Model}, c.FallbackModels...)
}

func applyPurposeTimeoutEnv(cfg *LLMConfig, purpose Purpose, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	pc := cfg.Purposes[purpose]
	pc.TimeoutMs = n
	cfg.Purposes[purpose] = pc
}
