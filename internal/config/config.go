// Package config loads process configuration from the environment. A .env
// file in the working directory is applied first.
package config

import (
	"errors"
	"fmt"
	"strings"

	"DietPlanner/internal/telemetry"

	"github.com/joeshaw/envdecode"
	_ "github.com/joho/godotenv/autoload"
)

type ServerConfig struct {
	Port          int    `env:"PORT,default=8080"`
	AppEnv        string `env:"APP_ENV,default=development"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	SessionSecret string `env:"SESSION_SECRET,default=dietplanner-dev-secret-change-me"`

	// Comma separated, e.g. "https://app.example.com,https://admin.example.com".
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
}

// AllowedOrigins splits CORSAllowedOrigins, dropping blanks.
func (s ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type DatasetConfig struct {
	Path string `env:"DATASET_PATH,default=data/diet_dataset.csv"`
}

type HistoryConfig struct {
	Backend     string `env:"HISTORY_BACKEND,default=file"`
	DailyPath   string `env:"HISTORY_1DAY_PATH,default=data/previous_1day_plans.json"`
	WeeklyPath  string `env:"HISTORY_7DAY_PATH,default=data/previous_7day_plans.json"`
	S3Bucket    string `env:"HISTORY_S3_BUCKET"`
	S3Prefix    string `env:"HISTORY_S3_PREFIX,default=history/"`
	SQLitePath  string `env:"HISTORY_SQLITE_PATH,default=data/history.db"`
	PostgresURL string `env:"HISTORY_POSTGRES_URL"`
}

type TextGenConfig struct {
	Provider      string  `env:"TEXTGEN_PROVIDER,default=openai"`
	Model         string  `env:"TEXTGEN_MODEL,default=gpt-4o-mini"`
	Temperature   float64 `env:"TEXTGEN_TEMPERATURE,default=0.7"`
	RatePerSec    float64 `env:"TEXTGEN_RATE_PER_SEC,default=5"`
	Burst         int     `env:"TEXTGEN_BURST,default=5"`
	OpenAIAPIKey  string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `env:"OPENAI_BASE_URL,default=https://api.openai.com/v1"`
	GeminiAPIKey  string  `env:"GEMINI_API_KEY"`
}

type ChatConfig struct {
	Scope       string `env:"CHAT_SCOPE,default=session"`
	MaxSessions int    `env:"CHAT_MAX_SESSIONS,default=1024"`
}

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig
	Dataset DatasetConfig
	History HistoryConfig
	TextGen TextGenConfig
	Chat    ChatConfig
	Otel    telemetry.OtelConfig
}

// Load decodes the environment and validates cross-field requirements.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.AppEnv, "development")
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error

	switch c.History.Backend {
	case "file", "sqlite":
	case "s3":
		if c.History.S3Bucket == "" {
			errs = append(errs, errors.New("HISTORY_S3_BUCKET is required for the s3 history backend"))
		}
	case "postgres":
		if c.History.PostgresURL == "" {
			errs = append(errs, errors.New("HISTORY_POSTGRES_URL is required for the postgres history backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown HISTORY_BACKEND %q", c.History.Backend))
	}

	switch c.TextGen.Provider {
	case "openai":
		// A missing key is allowed: every call fails and plans fall back to
		// placeholder explanations.
	case "gemini":
		if c.TextGen.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	case "bedrock":
	default:
		errs = append(errs, fmt.Errorf("unknown TEXTGEN_PROVIDER %q", c.TextGen.Provider))
	}

	switch c.Chat.Scope {
	case "session", "global":
	default:
		errs = append(errs, fmt.Errorf("unknown CHAT_SCOPE %q", c.Chat.Scope))
	}

	if c.TextGen.Temperature < 0 || c.TextGen.Temperature > 2 {
		errs = append(errs, fmt.Errorf("TEXTGEN_TEMPERATURE must be between 0 and 2, got %v", c.TextGen.Temperature))
	}

	// A zero burst fails every limiter.Wait and a zero rate fails them once the
	// burst is spent. Explanations would all become the placeholder.
	if c.TextGen.RatePerSec <= 0 {
		errs = append(errs, fmt.Errorf("TEXTGEN_RATE_PER_SEC must be positive, got %v", c.TextGen.RatePerSec))
	}
	if c.TextGen.Burst < 1 {
		errs = append(errs, fmt.Errorf("TEXTGEN_BURST must be at least 1, got %d", c.TextGen.Burst))
	}

	return errors.Join(errs...)
}
