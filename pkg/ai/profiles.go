package ai

import "strings"

// UsageReporter extracts the reportable token count from accumulated metrics.
// Provider families expose usage under different fields, so each family gets
// its own implementation instead of branching on client types at runtime.
type UsageReporter interface {
	TotalTokens(m ModelMetrics) int
}

// ModelProfile binds a model family to its context chunk cutoff and the usage
// extraction strategy for its responses. The table is static and read-only.
type ModelProfile struct {
	Family string
	// TokenCutoff is the maximum number of retrieved chunks admitted into the
	// assembled context for this family. It is a chunk count, not a true
	// token count.
	TokenCutoff int
	Usage       UsageReporter
}

// DefaultTokenCutoff applies to model families missing from the profile table.
const DefaultTokenCutoff = 4

type totalTokenUsage struct{}

func (totalTokenUsage) TotalTokens(m ModelMetrics) int { return m.TotalTokens }

type promptTokenUsage struct{}

func (promptTokenUsage) TotalTokens(m ModelMetrics) int { return m.InputTokens }

type summedTokenUsage struct{}

func (summedTokenUsage) TotalTokens(m ModelMetrics) int {
	return m.InputTokens + m.OutputTokens
}

type noUsage struct{}

func (noUsage) TotalTokens(ModelMetrics) int { return 0 }

// profiles is ordered: the first family whose name is contained in the model
// identifier wins, so "gpt-4" must come before "gpt".
var profiles = []ModelProfile{
	{Family: "gpt-4", TokenCutoff: 28, Usage: totalTokenUsage{}},
	{Family: "gpt-3.5", TokenCutoff: 4, Usage: totalTokenUsage{}},
	{Family: "azure", TokenCutoff: 28, Usage: totalTokenUsage{}},
	{Family: "gemini", TokenCutoff: 4, Usage: promptTokenUsage{}},
	{Family: "claude", TokenCutoff: 4, Usage: summedTokenUsage{}},
	{Family: "anthropic", TokenCutoff: 4, Usage: summedTokenUsage{}},
	{Family: "llama", TokenCutoff: 2, Usage: promptTokenUsage{}},
	{Family: "ollama", TokenCutoff: 2, Usage: promptTokenUsage{}},
}

// ResolveProfile maps a model identifier to its profile. Unknown model
// families get the conservative default cutoff and report zero usage.
func ResolveProfile(model string) ModelProfile {
	normalized := strings.ToLower(strings.TrimSpace(model))
	for _, p := range profiles {
		if strings.Contains(normalized, p.Family) {
			return p
		}
	}
	return ModelProfile{
		Family:      "default",
		TokenCutoff: DefaultTokenCutoff,
		Usage:       noUsage{},
	}
}
