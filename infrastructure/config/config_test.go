package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ServerAddress:      ":8080",
		Environment:        "development",
		DatabaseURL:        "postgres://localhost:5432/memories",
		OpenAIAPIKey:       "sk-test",
		EmbeddingModel:     "text-embedding-3-small",
		ChatModel:          "gpt-3.5-turbo",
		AuthEnabled:        true,
		SupabaseURL:        "https://example.supabase.co",
		SupabaseServiceKey: "service-key",
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("MissingDatabaseURL", func(t *testing.T) {
		cfg := validConfig()
		cfg.DatabaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		cfg := validConfig()
		cfg.OpenAIAPIKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("AuthWithoutProviderFailsClosed", func(t *testing.T) {
		cfg := validConfig()
		cfg.SupabaseURL = ""
		cfg.SupabaseServiceKey = ""
		cfg.SupabaseJWTSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("AuthWithJWTSecretOnly", func(t *testing.T) {
		cfg := validConfig()
		cfg.SupabaseURL = ""
		cfg.SupabaseServiceKey = ""
		cfg.SupabaseJWTSecret = "super-secret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("AuthDisabledNeedsNoProvider", func(t *testing.T) {
		cfg := validConfig()
		cfg.AuthEnabled = false
		cfg.SupabaseURL = ""
		cfg.SupabaseServiceKey = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/memories")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("SERVER_ADDRESS", ":9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-3.5-turbo", cfg.ChatModel)
}
