package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voicebench gateway
type Config struct {
	// Server configuration
	Port      string `envconfig:"PORT" default:"8009"`
	StaticDir string `envconfig:"STATIC_DIR" default:"static"` // Browser UI assets (worklet.js etc.)

	// Recognition language shared by all STT providers
	Language string `envconfig:"LANGUAGE" default:"en"`

	// Deepgram configuration (streaming STT + Aura TTS)
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramTTSModel string `envconfig:"DEEPGRAM_TTS_MODEL" default:"aura-asteria-en"`

	// OpenAI configuration (Realtime transcription + TTS)
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAISTTModel string `envconfig:"OPENAI_STT_MODEL" default:"gpt-4o-mini-transcribe"`
	OpenAITTSModel string `envconfig:"OPENAI_TTS_MODEL" default:"tts-1"`
	OpenAITTSVoice string `envconfig:"OPENAI_TTS_VOICE" default:"alloy"`

	// Soniox configuration (realtime STT)
	SonioxAPIKey string `envconfig:"SONIOX_API_KEY" default:""`
	SonioxModel  string `envconfig:"SONIOX_MODEL" default:"stt-rt-preview"`

	// Audio configuration. Inbound audio is 16kHz 16-bit mono PCM.
	SampleRate     int `envconfig:"SAMPLE_RATE" default:"16000"`
	FrameQueueSize int `envconfig:"FRAME_QUEUE_SIZE" default:"64"`  // Per-provider bounded audio queue (frames)
	EventQueueSize int `envconfig:"EVENT_QUEUE_SIZE" default:"256"` // Merged transcription event channel

	// TTS output defaults. Providers may report their own rate.
	TTSSampleRate int `envconfig:"TTS_SAMPLE_RATE" default:"24000"`

	// Session lifecycle
	ShutdownGraceMs int `envconfig:"SHUTDOWN_GRACE_MS" default:"5000"` // Bounded wait for provider teardown

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// At least one STT provider must be configured or the comparison has
	// nothing to compare.
	if cfg.DeepgramAPIKey == "" && cfg.OpenAIAPIKey == "" && cfg.SonioxAPIKey == "" {
		return nil, fmt.Errorf("no provider API keys configured (set DEEPGRAM_API_KEY, OPENAI_API_KEY or SONIOX_API_KEY)")
	}

	return &cfg, nil
}

// STTProviderNames returns the display names of the configured STT providers.
func (c *Config) STTProviderNames() []string {
	var names []string
	if c.DeepgramAPIKey != "" {
		names = append(names, "Deepgram")
	}
	if c.OpenAIAPIKey != "" {
		names = append(names, "OpenAI")
	}
	if c.SonioxAPIKey != "" {
		names = append(names, "Soniox")
	}
	return names
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
