package config

import (
	"os"
	"testing"
	"time"
)

// Test environment variable keys.
const (
	testEnvPostgresDSN = "POSTGRES_DSN"
	testEnvBotToken    = "BOT_TOKEN"
	testEnvAdminIDs    = "ADMIN_IDS"
)

// Test values.
const (
	testPostgresDSN  = "postgres://localhost/test"
	testBotToken     = "123456:ABC-DEF"
	testErrLoad      = "Load() error = %v"
	testDefaultEnv   = "local"
	testDefaultModel = "gpt-4o-mini"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
	t.Setenv(testEnvBotToken, testBotToken)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv(testEnvPostgresDSN)
	os.Unsetenv(testEnvBotToken)

	_, err := Load()
	if err == nil {
		t.Error("expected error for missing required env vars")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want %q", cfg.PostgresDSN, testPostgresDSN)
	}

	if cfg.BotToken != testBotToken {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, testBotToken)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != testDefaultEnv {
		t.Errorf("AppEnv = %q, want %q", cfg.AppEnv, testDefaultEnv)
	}

	if cfg.OpenAIModel != testDefaultModel {
		t.Errorf("OpenAIModel = %q, want %q", cfg.OpenAIModel, testDefaultModel)
	}

	if cfg.ProviderTimeout != 30*time.Second {
		t.Errorf("ProviderTimeout = %v, want %v", cfg.ProviderTimeout, 30*time.Second)
	}

	if cfg.ProviderCooldown != time.Minute {
		t.Errorf("ProviderCooldown = %v, want %v", cfg.ProviderCooldown, time.Minute)
	}

	if cfg.ContextMaxTokens != 2000 {
		t.Errorf("ContextMaxTokens = %d, want %d", cfg.ContextMaxTokens, 2000)
	}

	if cfg.DefaultPersona != "choy" {
		t.Errorf("DefaultPersona = %q, want %q", cfg.DefaultPersona, "choy")
	}
}

func TestLoad_AdminIDs(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv(testEnvAdminIDs, "123,456")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != 123 || cfg.AdminIDs[1] != 456 {
		t.Errorf("AdminIDs = %v, want [123 456]", cfg.AdminIDs)
	}
}

func TestHasLLMProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"none configured", Config{}, false},
		{"openai only", Config{OpenAIAPIKey: "sk-test"}, true},
		{"anthropic only", Config{AnthropicAPIKey: "sk-ant"}, true},
		{"deepseek only", Config{DeepSeekAPIKey: "sk-ds"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.HasLLMProvider(); got != tt.want {
				t.Errorf("HasLLMProvider() = %v, want %v", got, tt.want)
			}
		})
	}
}
