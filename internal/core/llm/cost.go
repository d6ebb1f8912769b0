package llm

import "strings"

// Cost per 1M tokens (in USD) for the supported providers and models.
// These are approximate costs and should be updated as pricing changes.
// Reference: https://openai.com/pricing, https://www.anthropic.com/pricing,
// https://api-docs.deepseek.com/quick_start/pricing
const (
	// OpenAI
	costGPT4OPromptPer1M     = 2.50  // $2.50 per 1M prompt tokens
	costGPT4OCompletionPer1M = 10.00 // $10.00 per 1M completion tokens
	costGPT4OMiniPrompt      = 0.15  // $0.15 per 1M prompt tokens
	costGPT4OMiniComplete    = 0.60  // $0.60 per 1M completion tokens

	// Anthropic Claude
	costClaudeHaikuPrompt    = 1.00  // $1.00 per 1M prompt tokens
	costClaudeHaikuComplete  = 5.00  // $5.00 per 1M completion tokens
	costClaudeSonnetPrompt   = 3.00  // $3.00 per 1M prompt tokens
	costClaudeSonnetComplete = 15.00 // $15.00 per 1M completion tokens

	// DeepSeek
	costDeepSeekChatPrompt     = 0.27 // $0.27 per 1M prompt tokens
	costDeepSeekChatComplete   = 1.10 // $1.10 per 1M completion tokens
	costDeepSeekReasonPrompt   = 0.55 // $0.55 per 1M prompt tokens
	costDeepSeekReasonComplete = 2.19 // $2.19 per 1M completion tokens

	// Conversion factor
	tokensPerMillion = 1000000.0
)

// estimateCost calculates an estimated cost in USD for a request based on
// provider, model, and token counts.
func estimateCost(provider, model string, promptTokens, completionTokens int) float64 {
	promptCost, completionCost := getCostRates(provider, model)

	promptUSD := float64(promptTokens) * promptCost / tokensPerMillion
	completionUSD := float64(completionTokens) * completionCost / tokensPerMillion

	return promptUSD + completionUSD
}

// getCostRates returns the cost per 1M tokens for prompt and completion.
func getCostRates(provider, model string) (promptRate, completionRate float64) {
	modelLower := strings.ToLower(model)

	switch provider {
	case string(ProviderOpenAI):
		return getOpenAICostRates(modelLower)
	case string(ProviderAnthropic):
		return getAnthropicCostRates(modelLower)
	case string(ProviderDeepSeek):
		return getDeepSeekCostRates(modelLower)
	case string(ProviderMock):
		return 0, 0
	default:
		// Conservative fallback for unrecognized providers
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	}
}

// getOpenAICostRates returns cost rates for OpenAI models.
func getOpenAICostRates(model string) (float64, float64) {
	switch {
	case strings.Contains(model, "gpt-4o-mini"):
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	case strings.Contains(model, "gpt-4"):
		return costGPT4OPromptPer1M, costGPT4OCompletionPer1M
	default:
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	}
}

// getAnthropicCostRates returns cost rates for Anthropic models.
func getAnthropicCostRates(model string) (float64, float64) {
	switch {
	case strings.Contains(model, "haiku"):
		return costClaudeHaikuPrompt, costClaudeHaikuComplete
	case strings.Contains(model, "sonnet"), strings.Contains(model, "opus"):
		return costClaudeSonnetPrompt, costClaudeSonnetComplete
	default:
		return costClaudeHaikuPrompt, costClaudeHaikuComplete
	}
}

// getDeepSeekCostRates returns cost rates for DeepSeek models.
func getDeepSeekCostRates(model string) (float64, float64) {
	if strings.Contains(model, "reasoner") {
		return costDeepSeekReasonPrompt, costDeepSeekReasonComplete
	}

	return costDeepSeekChatPrompt, costDeepSeekChatComplete
}
