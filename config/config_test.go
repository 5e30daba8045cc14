package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("REVIEW_LEGACY_TRANSITIONS", "")

	cfg := Load()

	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("Expected sqlite driver, got %s", cfg.DatabaseDriver)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("Expected default model gpt-4o-mini, got %s", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxCompletionTokens != 1000 {
		t.Errorf("Expected 1000 max completion tokens, got %d", cfg.OpenAI.MaxCompletionTokens)
	}
	if cfg.LegacyTransitions {
		t.Error("Expected terminal-state guard to be on by default")
	}
	if len(cfg.EncryptionKey) != 32 {
		t.Errorf("Default encryption key must be 32 characters, got %d", len(cfg.EncryptionKey))
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "POSTGRES")
	t.Setenv("REVIEW_LEGACY_TRANSITIONS", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg := Load()

	if cfg.DatabaseDriver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.DatabaseDriver)
	}
	if !cfg.LegacyTransitions {
		t.Error("Expected legacy transitions to be enabled")
	}
	if !cfg.AssistantEnabled() {
		t.Error("Expected assistant to be enabled when a key is set")
	}
	if cfg.RateLimit.Burst != 5 {
		t.Errorf("Expected burst 5, got %d", cfg.RateLimit.Burst)
	}
}
