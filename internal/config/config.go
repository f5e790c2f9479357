// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Provider names accepted in EMBEDDING_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	LogLevel string

	// EmbeddingProvider selects the inference backend: ollama (default), openai, or mock.
	EmbeddingProvider string

	// EmbeddingModel overrides the provider's default model identifier.
	EmbeddingModel string

	// EmbeddingDimensions is the expected output dimensionality; 0 keeps the provider default.
	EmbeddingDimensions int

	// OllamaURL is the base URL of the local Ollama server.
	OllamaURL string

	// OpenAIAPIKey is required when EmbeddingProvider is "openai".
	OpenAIAPIKey string

	// EmbedCacheSize caps the in-memory embed cache; 0 disables caching.
	EmbedCacheSize int

	// MetricsEnabled exposes a Prometheus registry on GET /metrics.
	MetricsEnabled bool
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads a .env file if one exists. All keys have defaults except
// OPENAI_API_KEY, which is required when EMBEDDING_PROVIDER is "openai".
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	provider := getEnv("EMBEDDING_PROVIDER", ProviderOllama)
	switch provider {
	case ProviderOllama, ProviderOpenAI, ProviderMock:
	default:
		return nil, fmt.Errorf("unsupported EMBEDDING_PROVIDER: %q (want ollama, openai, or mock)", provider)
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if provider == ProviderOpenAI && openAIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required when EMBEDDING_PROVIDER is openai")
	}

	dimensions := getEnvAsInt("EMBEDDING_DIMENSIONS", 0)
	if dimensions < 0 {
		return nil, errors.New("EMBEDDING_DIMENSIONS must not be negative")
	}

	cacheSize := getEnvAsInt("EMBED_CACHE_SIZE", 0)
	if cacheSize < 0 {
		return nil, errors.New("EMBED_CACHE_SIZE must not be negative")
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		EmbeddingProvider:   provider,
		EmbeddingModel:      os.Getenv("EMBEDDING_MODEL"),
		EmbeddingDimensions: dimensions,
		OllamaURL:           getEnv("OLLAMA_URL", "http://localhost:11434"),
		OpenAIAPIKey:        openAIKey,

		EmbedCacheSize: cacheSize,
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	return cfg, nil
}
