package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the API server configuration. Provider credentials are not part
// of it: every request carries its own.
type Config struct {
	AppEnv, AppPort string
	CORSOrigins     []string

	MaxUploadMB     int
	RateLimitMax    int
	RateLimitWindow time.Duration

	ProviderRPS     float64
	ProviderBurst   int
	ProviderTimeout time.Duration

	// Base URL overrides, mostly for proxies and tests.
	AnthropicBaseURL string
	OpenAIBaseURL    string
	GeminiBaseURL    string

	GenerateMaxTokens int

	// LLMEventDB is the sqlite path for the request event log. Empty
	// disables the log.
	LLMEventDB string
}

// Load reads .env if present, then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:            get("APP_ENV", "dev"),
		AppPort:           get("APP_PORT", "8080"),
		CORSOrigins:       split(get("CORS_ORIGINS", "*")),
		MaxUploadMB:       GetEnvInt("MAX_UPLOAD_MB", 20),
		RateLimitMax:      GetEnvInt("RATE_LIMIT_MAX", 30),
		RateLimitWindow:   mustDuration(get("RATE_LIMIT_WINDOW", "1m")),
		ProviderRPS:       parseFloat(get("PROVIDER_RPS", "2")),
		ProviderBurst:     GetEnvInt("PROVIDER_BURST", 4),
		ProviderTimeout:   mustDuration(get("PROVIDER_TIMEOUT", "0s")),
		AnthropicBaseURL:  get("ANTHROPIC_BASE_URL", ""),
		OpenAIBaseURL:     get("OPENAI_BASE_URL", ""),
		GeminiBaseURL:     get("GEMINI_BASE_URL", ""),
		GenerateMaxTokens: GetEnvInt("GENERATE_MAX_TOKENS", 4000),
		LLMEventDB:        get("LLM_EVENT_DB", ""),
	}
}

// MaxUploadBytes is the request body ceiling derived from MaxUploadMB.
func (c *Config) MaxUploadBytes() int {
	return c.MaxUploadMB * 1024 * 1024
}

func GetEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func GetEnv(k, d string) string {
	return get(k, d)
}

func get(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func parseFloat(s string) float64 { f, _ := strconv.ParseFloat(s, 64); return f }

func mustDuration(s string) time.Duration { d, _ := time.ParseDuration(s); return d }

func split(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
