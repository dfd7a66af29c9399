package config

import (
	"os"
	"strconv"

	"github.com/scolaris/plume/internal/evolution"
	"github.com/scolaris/plume/internal/journal"
)

type Config struct {
	Port            int
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	APIToken        string
	PeriodScheme    string // "trimestres" or "semestres"
	Thresholds      evolution.Policy
	Significance    int
}

func Load() Config {
	cfg := Config{
		Port:            envInt("PLUME_PORT", 8760),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("PLUME_MODEL", "claude-sonnet-4-20250514"),
		APIToken:        envStr("PLUME_API_TOKEN", ""),
		PeriodScheme:    envStr("PLUME_PERIODS", "trimestres"),
		Thresholds: evolution.Policy{
			VeryPositive: envFloat("PLUME_THRESHOLD_VERY_POSITIVE", 2.0),
			Positive:     envFloat("PLUME_THRESHOLD_POSITIVE", 0.5),
			Negative:     envFloat("PLUME_THRESHOLD_NEGATIVE", -0.5),
			VeryNegative: envFloat("PLUME_THRESHOLD_VERY_NEGATIVE", -2.0),
		},
		Significance: journal.ClampSignificance(envInt("PLUME_SIGNIFICANCE", journal.DefaultSignificance)),
	}

	// An inconsistent threshold override would make every classification
	// meaningless, so reject the whole set rather than clamp pieces of it.
	if err := cfg.Thresholds.Validate(); err != nil {
		cfg.Thresholds = evolution.DefaultPolicy()
	}

	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
