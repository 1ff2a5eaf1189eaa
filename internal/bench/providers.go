package bench

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/config"
	"github.com/hikaku/voicebench/internal/provider"
	"github.com/hikaku/voicebench/internal/provider/deepgram"
	"github.com/hikaku/voicebench/internal/provider/openai"
	"github.com/hikaku/voicebench/internal/provider/soniox"
)

// buildSTTProviders constructs one STT adapter per configured provider.
// The shared httpClient is injected into every adapter that dials over
// HTTP/WebSocket so the session reuses one connection pool.
func buildSTTProviders(cfg *config.Config, httpClient *http.Client, log zerolog.Logger) []provider.STTProvider {
	var providers []provider.STTProvider
	if cfg.DeepgramAPIKey != "" {
		providers = append(providers, deepgram.NewSTT(cfg.DeepgramAPIKey, cfg.DeepgramModel, log))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, openai.NewSTT(cfg.OpenAIAPIKey, cfg.OpenAISTTModel, httpClient, log))
	}
	if cfg.SonioxAPIKey != "" {
		providers = append(providers, soniox.NewSTT(cfg.SonioxAPIKey, cfg.SonioxModel, httpClient, log))
	}
	return providers
}

// buildTTSProviders constructs one TTS adapter per configured provider.
func buildTTSProviders(cfg *config.Config, httpClient *http.Client, log zerolog.Logger) []provider.TTSProvider {
	var providers []provider.TTSProvider
	if cfg.DeepgramAPIKey != "" {
		providers = append(providers, deepgram.NewTTS(cfg.DeepgramAPIKey, cfg.DeepgramTTSModel, cfg.TTSSampleRate, httpClient, log))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, openai.NewTTS(cfg.OpenAIAPIKey, cfg.OpenAITTSModel, cfg.OpenAITTSVoice, httpClient, log))
	}
	return providers
}

// TTSProviderInfos returns the stable TTS {id, name} list for the
// configured providers without constructing network clients.
func TTSProviderInfos(cfg *config.Config) []ProviderInfo {
	names := []string{}
	if cfg.DeepgramAPIKey != "" {
		names = append(names, "Deepgram Aura")
	}
	if cfg.OpenAIAPIKey != "" {
		names = append(names, "OpenAI")
	}

	taken := make(map[string]bool)
	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, ProviderInfo{ID: provider.UniqueID(name, taken), Name: name})
	}
	return infos
}
