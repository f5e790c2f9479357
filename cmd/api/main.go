package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/adhnannp/Embedding-API/internal/api/handlers"
	"github.com/adhnannp/Embedding-API/internal/api/middleware"
	"github.com/adhnannp/Embedding-API/internal/config"
	"github.com/adhnannp/Embedding-API/internal/embeddings"
	"github.com/adhnannp/Embedding-API/internal/observability"
)

// warmupTimeout bounds the startup model verification. A first encode can be
// slow when the backend loads model weights lazily.
const warmupTimeout = 120 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	client, err := newEmbeddingClient(cfg)
	if err != nil {
		slog.Error("Failed to create embedding client", "error", err)
		os.Exit(1)
	}

	// Load the model before accepting any traffic. A backend that cannot
	// serve the configured model must fail the process here, not per request.
	warmupCtx, cancelWarmup := context.WithTimeout(context.Background(), warmupTimeout)
	if err := loadModel(warmupCtx, client); err != nil {
		cancelWarmup()
		slog.Error("Failed to load embedding model", "error", err)
		os.Exit(1)
	}
	cancelWarmup()

	slog.Info("Embedding model loaded",
		"provider", cfg.EmbeddingProvider,
		"model", client.ModelName(),
		"dimensions", client.Dimensions(),
	)

	if cfg.EmbedCacheSize > 0 {
		cached, err := embeddings.NewCachedClient(client, cfg.EmbedCacheSize)
		if err != nil {
			slog.Error("Failed to create embed cache", "error", err)
			os.Exit(1)
		}

		client = cached
		slog.Info("Embed cache enabled", "size", cfg.EmbedCacheSize)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	server := newHTTPServer(cfg, client, metrics)

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// newEmbeddingClient constructs the configured provider client. The client is
// the process-wide model handle: built once here and injected into the
// handler, never mutated afterwards.
func newEmbeddingClient(cfg *config.Config) (embeddings.Client, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		opts := []embeddings.OllamaOption{embeddings.WithBaseURL(cfg.OllamaURL)}
		if cfg.EmbeddingModel != "" {
			opts = append(opts, embeddings.WithModel(cfg.EmbeddingModel))
		}
		if cfg.EmbeddingDimensions > 0 {
			opts = append(opts, embeddings.WithDimensions(cfg.EmbeddingDimensions))
		}

		return embeddings.NewOllamaClient(opts...), nil
	case config.ProviderOpenAI:
		var opts []embeddings.OpenAIOption
		if cfg.EmbeddingModel != "" {
			opts = append(opts, embeddings.WithOpenAIModel(cfg.EmbeddingModel))
		}
		if cfg.EmbeddingDimensions > 0 {
			opts = append(opts, embeddings.WithOpenAIDimensions(cfg.EmbeddingDimensions))
		}

		return embeddings.NewOpenAIClient(cfg.OpenAIAPIKey, opts...), nil
	case config.ProviderMock:
		if cfg.EmbeddingDimensions > 0 {
			return embeddings.NewMockClientWithDimensions(cfg.EmbeddingDimensions), nil
		}

		return embeddings.NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.EmbeddingProvider)
	}
}

// loadModel verifies the model is present and usable. For Ollama this checks
// the model list first so "model not pulled" produces a clear error before
// the probe encode.
func loadModel(ctx context.Context, client embeddings.Client) error {
	if ollama, ok := client.(*embeddings.OllamaClient); ok {
		found, err := ollama.HasModel(ctx)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("model %q is not available in Ollama (run: ollama pull %s)",
				ollama.ModelName(), ollama.ModelName())
		}
	}

	return embeddings.Warmup(ctx, client)
}

// newHTTPServer builds the server and middleware chain:
// RequestID -> Logging -> Metrics -> CORS -> mux. CORS sits innermost so
// preflight responses skip the handlers but still get logged and counted.
func newHTTPServer(cfg *config.Config, client embeddings.Client, metrics *observability.Metrics) *http.Server {
	embedHandler := handlers.NewEmbedHandler(client, metrics)
	healthHandler := handlers.NewHealthHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /embed", embedHandler.Embed)
	mux.HandleFunc("GET /health", healthHandler.Check)

	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var handler http.Handler = middleware.CORS(mux)
	if metrics != nil {
		handler = middleware.Metrics(metrics)(handler)
	}

	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 120 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// setupLogging configures slog with the specified log level and the
// request_id context handler.
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(observability.NewRequestIDHandler(handler)))
}
