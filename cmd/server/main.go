package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hikaku/voicebench/internal/bench"
	"github.com/hikaku/voicebench/internal/config"
	"github.com/hikaku/voicebench/internal/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Strs("stt_providers", cfg.STTProviderNames()).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("voicebench gateway starting")

	mux := http.NewServeMux()

	// Benchmark WebSocket endpoint
	mux.HandleFunc("/ws", bench.HandleWS(cfg))

	// Browser UI shell and audio-capture worklet
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.StaticDir, "index.html"))
	})

	// TTS provider list for UI rendering, independent of any synthesis call
	mux.HandleFunc("/tts/providers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"providers": bench.TTSProviderInfos(cfg),
		})
	})

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint: configuration-only checks, no API spend
	checks := map[string]observability.HealthCheckFunc{}
	if cfg.DeepgramAPIKey != "" {
		checks["deepgram"] = configuredCheck("deepgram", cfg.DeepgramAPIKey)
	}
	if cfg.OpenAIAPIKey != "" {
		checks["openai"] = configuredCheck("openai", cfg.OpenAIAPIKey)
	}
	if cfg.SonioxAPIKey != "" {
		checks["soniox"] = configuredCheck("soniox", cfg.SonioxAPIKey)
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts. No WriteTimeout: the /ws endpoint
	// holds its connection open for the whole session.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 0,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/ws", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

// configuredCheck reports whether a provider has a key configured.
func configuredCheck(name, apiKey string) observability.HealthCheckFunc {
	return func(ctx context.Context) (bool, error) {
		if apiKey == "" {
			return false, fmt.Errorf("%s: api key not configured", name)
		}
		return true, nil
	}
}
