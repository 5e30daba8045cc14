package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	EncryptionKey  string
	AdminCode      string
	Port           string
	Environment    string

	OpenAI struct {
		APIKey              string
		BaseURL             string
		Model               string
		MaxCompletionTokens int
	}

	// LegacyTransitions turns off the terminal-state guard on application review.
	LegacyTransitions bool

	RateLimit struct {
		RPS   float64
		Burst int
	}
}

func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "mandt.db")
	v.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	v.SetDefault("ENCRYPTION_KEY", "MandTMicrofinance2025SecureKey123")
	v.SetDefault("ADMIN_CODE", "MANDT_ADMIN_2025")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_MAX_COMPLETION_TOKENS", 1000)
	v.SetDefault("REVIEW_LEGACY_TRANSITIONS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 50)

	cfg := &Config{
		DatabaseDriver:    strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		EncryptionKey:     v.GetString("ENCRYPTION_KEY"),
		AdminCode:         v.GetString("ADMIN_CODE"),
		Port:              v.GetString("PORT"),
		Environment:       v.GetString("ENVIRONMENT"),
		LegacyTransitions: v.GetBool("REVIEW_LEGACY_TRANSITIONS"),
	}
	cfg.OpenAI.APIKey = v.GetString("OPENAI_API_KEY")
	cfg.OpenAI.BaseURL = v.GetString("OPENAI_BASE_URL")
	cfg.OpenAI.Model = v.GetString("OPENAI_MODEL")
	cfg.OpenAI.MaxCompletionTokens = v.GetInt("OPENAI_MAX_COMPLETION_TOKENS")
	cfg.RateLimit.RPS = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.Burst = v.GetInt("RATE_LIMIT_BURST")

	return cfg
}

// AssistantEnabled reports whether a completion-service key is configured.
func (c *Config) AssistantEnabled() bool {
	return c.OpenAI.APIKey != ""
}

func ValidateConfig(cfg *Config) {
	if len(cfg.EncryptionKey) != 32 {
		log.Fatalf("ENCRYPTION_KEY must be exactly 32 characters, got %d", len(cfg.EncryptionKey))
	}
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		log.Fatalf("DATABASE_DRIVER must be sqlite or postgres, got %q", cfg.DatabaseDriver)
	}
	if len(cfg.JWTSecret) < 32 {
		log.Printf("WARNING: JWT_SECRET should be at least 32 characters for security")
	}
	if cfg.Environment == "production" && cfg.AdminCode == "MANDT_ADMIN_2025" {
		log.Printf("WARNING: Change ADMIN_CODE in production environment")
	}
	if !cfg.AssistantEnabled() {
		log.Printf("WARNING: OPENAI_API_KEY is not set, the assistant endpoint will answer 502")
	}
	if cfg.LegacyTransitions {
		log.Printf("WARNING: REVIEW_LEGACY_TRANSITIONS is on, terminal application states are not enforced")
	}
}
