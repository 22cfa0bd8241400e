package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "data/diet_dataset.csv", cfg.Dataset.Path)
	assert.Equal(t, "file", cfg.History.Backend)
	assert.Equal(t, "data/previous_1day_plans.json", cfg.History.DailyPath)
	assert.Equal(t, "data/previous_7day_plans.json", cfg.History.WeeklyPath)
	assert.Equal(t, "gpt-4o-mini", cfg.TextGen.Model)
	assert.Equal(t, 0.7, cfg.TextGen.Temperature)
	assert.Equal(t, "session", cfg.Chat.Scope)
	assert.Equal(t, 1024, cfg.Chat.MaxSessions)
	assert.Equal(t, "dietplanner", cfg.Otel.ServiceName)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			History: HistoryConfig{Backend: "file"},
			TextGen: TextGenConfig{Provider: "openai", Temperature: 0.7, RatePerSec: 5, Burst: 5},
			Chat:    ChatConfig{Scope: "session"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "s3 without bucket", mutate: func(c *Config) { c.History.Backend = "s3" }, wantErr: "HISTORY_S3_BUCKET"},
		{name: "postgres without url", mutate: func(c *Config) { c.History.Backend = "postgres" }, wantErr: "HISTORY_POSTGRES_URL"},
		{name: "unknown backend", mutate: func(c *Config) { c.History.Backend = "redis" }, wantErr: "unknown HISTORY_BACKEND"},
		{name: "gemini without key", mutate: func(c *Config) { c.TextGen.Provider = "gemini" }, wantErr: "GEMINI_API_KEY"},
		{name: "unknown provider", mutate: func(c *Config) { c.TextGen.Provider = "llama" }, wantErr: "unknown TEXTGEN_PROVIDER"},
		{name: "unknown scope", mutate: func(c *Config) { c.Chat.Scope = "team" }, wantErr: "unknown CHAT_SCOPE"},
		{name: "zero burst", mutate: func(c *Config) { c.TextGen.Burst = 0 }, wantErr: "TEXTGEN_BURST"},
		{name: "zero rate", mutate: func(c *Config) { c.TextGen.RatePerSec = 0 }, wantErr: "TEXTGEN_RATE_PER_SEC"},
		{name: "negative rate", mutate: func(c *Config) { c.TextGen.RatePerSec = -1 }, wantErr: "TEXTGEN_RATE_PER_SEC"},
		{name: "temperature out of range", mutate: func(c *Config) { c.TextGen.Temperature = 3 }, wantErr: "TEXTGEN_TEMPERATURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := Config{Server: ServerConfig{AppEnv: "Development"}}
	assert.True(t, cfg.IsDevelopment())
	cfg.Server.AppEnv = "production"
	assert.False(t, cfg.IsDevelopment())
}

func TestAllowedOrigins(t *testing.T) {
	assert.Empty(t, ServerConfig{}.AllowedOrigins())
	assert.Equal(t,
		[]string{"https://a.test", "https://b.test"},
		ServerConfig{CORSAllowedOrigins: " https://a.test, ,https://b.test "}.AllowedOrigins())
}
