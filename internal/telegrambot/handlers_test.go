package telegrambot

import (
	"strings"
	"testing"

	db "github.com/lueurxax/assistant-bot/internal/storage"
)

func TestUsageWindow(t *testing.T) {
	tests := []struct {
		args string
		want string
	}{
		{"", usageWindowDay},
		{"month", usageWindowMonth},
		{"  Month ", usageWindowMonth},
		{"week", usageWindowDay},
		{"today", usageWindowDay},
	}

	for _, tt := range tests {
		if got := usageWindow(tt.args); got != tt.want {
			t.Errorf("usageWindow(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestFormatUsageReport(t *testing.T) {
	summary := &db.LLMUsageSummary{
		TotalRequests:         12,
		TotalPromptTokens:     3400,
		TotalCompletionTokens: 1800,
		TotalCostUSD:          0.0421,
		ByProvider: map[string]db.ProviderUsage{
			"openai": {Provider: "openai", RequestCount: 12, CostUSD: 0.0421},
		},
	}

	daily := formatUsageReport(usageWindowDay, summary)
	if !strings.Contains(daily, "LLM Usage Today") {
		t.Errorf("daily report missing title: %q", daily)
	}

	monthly := formatUsageReport(usageWindowMonth, summary)
	if !strings.Contains(monthly, "LLM Usage This Month") {
		t.Errorf("monthly report missing title: %q", monthly)
	}

	for _, want := range []string{"<code>12</code>", "<code>3400</code>", "<code>1800</code>", "$0.0421", "openai"} {
		if !strings.Contains(monthly, want) {
			t.Errorf("report missing %q: %q", want, monthly)
		}
	}
}
