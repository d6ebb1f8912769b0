package llm

import (
	"math"
	"testing"
)

const costTolerance = 1e-9

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name             string
		provider         string
		model            string
		promptTokens     int
		completionTokens int
		expected         float64
	}{
		{"gpt-4o-mini", "openai", "gpt-4o-mini", 1000000, 1000000, 0.75},
		{"gpt-4o", "openai", "gpt-4o", 1000000, 0, 2.50},
		{"claude haiku", "anthropic", "claude-haiku-4.5", 1000000, 1000000, 6.00},
		{"claude sonnet", "anthropic", "claude-sonnet-4", 0, 1000000, 15.00},
		{"deepseek chat", "deepseek", "deepseek-chat", 1000000, 1000000, 1.37},
		{"deepseek reasoner", "deepseek", "deepseek-reasoner", 1000000, 0, 0.55},
		{"mock is free", "mock", "mock-1", 1000000, 1000000, 0},
		{"zero tokens", "openai", "gpt-4o-mini", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimateCost(tt.provider, tt.model, tt.promptTokens, tt.completionTokens)

			if math.Abs(got-tt.expected) > costTolerance {
				t.Errorf("estimateCost(%s, %s) = %f, want %f", tt.provider, tt.model, got, tt.expected)
			}
		})
	}
}

func TestGetCostRates_UnknownProviderFallsBack(t *testing.T) {
	promptRate, completionRate := getCostRates("something-new", "whatever")

	if promptRate != costGPT4OMiniPrompt || completionRate != costGPT4OMiniComplete {
		t.Errorf("getCostRates() = (%f, %f), want gpt-4o-mini rates", promptRate, completionRate)
	}
}
