package bench

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/audio"
	"github.com/hikaku/voicebench/internal/observability"
	"github.com/hikaku/voicebench/internal/provider"
)

// SynthesisResult is one provider's outcome for a synthesis request.
// AudioBase64 and Error are mutually exclusive; timings are zeroed when
// Error is set.
type SynthesisResult struct {
	Provider    string  `json:"provider"`
	ProviderID  string  `json:"provider_id"`
	TTFBMs      float64 `json:"ttfb_ms"`
	TotalTimeMs float64 `json:"total_time_ms"`
	AudioBase64 *string `json:"audio_base64"`
	Error       *string `json:"error"`
}

// ttsSlot is one TTS provider's seat in the fan-out.
type ttsSlot struct {
	info     ProviderInfo
	provider provider.TTSProvider
}

// SynthesisFanout submits one text request to every configured TTS provider
// concurrently and returns the full result set only after every provider
// has completed, successfully or not.
type SynthesisFanout struct {
	slots       []ttsSlot
	defaultRate int
	httpClient  *http.Client
	now         func() time.Time
	log         zerolog.Logger
	closeOnce   sync.Once
}

// NewSynthesisFanout creates a fan-out over providers. httpClient is the
// session's shared pooled client, released by Close.
func NewSynthesisFanout(providers []provider.TTSProvider, defaultRate int, httpClient *http.Client, log zerolog.Logger) *SynthesisFanout {
	taken := make(map[string]bool)
	slots := make([]ttsSlot, 0, len(providers))
	for _, p := range providers {
		slots = append(slots, ttsSlot{
			info: ProviderInfo{
				ID:   provider.UniqueID(p.Name(), taken),
				Name: p.Name(),
			},
			provider: p,
		})
	}

	return &SynthesisFanout{
		slots:       slots,
		defaultRate: defaultRate,
		httpClient:  httpClient,
		now:         time.Now,
		log:         log,
	}
}

// Providers returns the stable {id, name} list, independent of any
// synthesis call.
func (f *SynthesisFanout) Providers() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(f.slots))
	for _, slot := range f.slots {
		infos = append(infos, slot.info)
	}
	return infos
}

// Synthesize runs one synthesis call per provider in parallel and collects
// every result. One provider's failure becomes that provider's Error field
// and never fails the aggregate call. Empty or whitespace-only text
// short-circuits with no provider calls.
func (f *SynthesisFanout) Synthesize(ctx context.Context, text string) []SynthesisResult {
	if strings.TrimSpace(text) == "" {
		return []SynthesisResult{}
	}

	results := make([]SynthesisResult, len(f.slots))
	var wg sync.WaitGroup
	for i := range f.slots {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.synthesizeOne(ctx, f.slots[i], text)
		}()
	}
	wg.Wait()

	return results
}

// synthesizeOne runs one provider's synthesis, recording time-to-first-byte
// and total elapsed time and packaging the concatenated audio as WAV.
func (f *SynthesisFanout) synthesizeOne(ctx context.Context, slot ttsSlot, text string) SynthesisResult {
	start := f.now()

	chunks, err := slot.provider.Synthesize(ctx, text)
	if err != nil {
		f.log.Error().Err(err).Str("provider", slot.info.ID).Msg("synthesis failed")
		observability.RecordSynthesis(slot.info.ID, false)
		return f.failure(slot, err.Error())
	}

	var pcm []byte
	rate := f.defaultRate
	ttfb := 0.0
	firstChunk := true

	for chunk := range chunks {
		if len(chunk.Data) == 0 {
			continue
		}
		if firstChunk {
			ttfb = float64(f.now().Sub(start)) / float64(time.Millisecond)
			firstChunk = false
		}
		pcm = append(pcm, chunk.Data...)
		if chunk.SampleRate > 0 {
			rate = chunk.SampleRate
		}
	}

	if len(pcm) == 0 {
		f.log.Warn().Str("provider", slot.info.ID).Msg("provider returned no audio")
		observability.RecordSynthesis(slot.info.ID, false)
		return f.failure(slot, "provider returned no audio")
	}

	total := float64(f.now().Sub(start)) / float64(time.Millisecond)

	wav := audio.EncodeWAV(pcm, rate, audio.Channels, audio.BitDepth)
	encoded := base64.StdEncoding.EncodeToString(wav)

	observability.RecordSynthesis(slot.info.ID, true)
	observability.ObserveSynthesisTTFB(slot.info.ID, ttfb/1000)
	observability.RecordAudioBytes("out", int64(len(wav)))

	f.log.Info().
		Str("provider", slot.info.ID).
		Float64("ttfb_ms", ttfb).
		Float64("total_ms", total).
		Int("pcm_bytes", len(pcm)).
		Msg("synthesis complete")

	return SynthesisResult{
		Provider:    slot.info.Name,
		ProviderID:  slot.info.ID,
		TTFBMs:      ttfb,
		TotalTimeMs: total,
		AudioBase64: &encoded,
	}
}

func (f *SynthesisFanout) failure(slot ttsSlot, message string) SynthesisResult {
	return SynthesisResult{
		Provider:   slot.info.Name,
		ProviderID: slot.info.ID,
		Error:      &message,
	}
}

// Close releases the shared networking resources. Idempotent.
func (f *SynthesisFanout) Close() {
	f.closeOnce.Do(func() {
		if f.httpClient != nil {
			f.httpClient.CloseIdleConnections()
		}
	})
}
