package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Errorf("Expected DeepgramAPIKey 'test-deepgram-key', got '%s'", cfg.DeepgramAPIKey)
	}
}

func TestLoad_NoProviders(t *testing.T) {
	os.Unsetenv("DEEPGRAM_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("SONIOX_API_KEY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when no provider keys are configured")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8009" {
		t.Errorf("Expected default Port '8009', got '%s'", cfg.Port)
	}

	if cfg.Language != "en" {
		t.Errorf("Expected default Language 'en', got '%s'", cfg.Language)
	}

	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("Expected default DeepgramModel 'nova-2', got '%s'", cfg.DeepgramModel)
	}

	if cfg.OpenAITTSVoice != "alloy" {
		t.Errorf("Expected default OpenAITTSVoice 'alloy', got '%s'", cfg.OpenAITTSVoice)
	}

	if cfg.SampleRate != 16000 {
		t.Errorf("Expected default SampleRate 16000, got %d", cfg.SampleRate)
	}

	if cfg.TTSSampleRate != 24000 {
		t.Errorf("Expected default TTSSampleRate 24000, got %d", cfg.TTSSampleRate)
	}

	if cfg.FrameQueueSize != 64 {
		t.Errorf("Expected default FrameQueueSize 64, got %d", cfg.FrameQueueSize)
	}

	if cfg.ShutdownGraceMs != 5000 {
		t.Errorf("Expected default ShutdownGraceMs 5000, got %d", cfg.ShutdownGraceMs)
	}
}

func TestLoad_ObservabilityDefaults(t *testing.T) {
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}

func TestSTTProviderNames(t *testing.T) {
	os.Setenv("DEEPGRAM_API_KEY", "dg")
	os.Setenv("SONIOX_API_KEY", "sx")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Unsetenv("DEEPGRAM_API_KEY")
	defer os.Unsetenv("SONIOX_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	names := cfg.STTProviderNames()
	if len(names) != 2 {
		t.Fatalf("Expected 2 provider names, got %d: %v", len(names), names)
	}
	if names[0] != "Deepgram" || names[1] != "Soniox" {
		t.Errorf("Unexpected provider names: %v", names)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := GetEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = GetEnv("NON_EXISTENT_KEY", "default")
	if value != "default" {
		t.Errorf("Expected 'default', got '%s'", value)
	}
}
