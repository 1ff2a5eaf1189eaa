package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/provider"
)

// pcmSampleRate is the sample rate of the OpenAI speech API's raw PCM
// response format (16-bit mono).
const pcmSampleRate = 24000

// TTS implements provider.TTSProvider using the OpenAI speech API.
type TTS struct {
	client oai.Client
	model  string
	voice  string
	log    zerolog.Logger
}

// NewTTS creates an OpenAI TTS provider. httpClient is the session's shared
// pooled client.
func NewTTS(apiKey, model, voice string, httpClient *http.Client, log zerolog.Logger) *TTS {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(httpClient))
	}

	return &TTS{
		client: oai.NewClient(reqOpts...),
		model:  model,
		voice:  voice,
		log:    log.With().Str("provider", "openai").Logger(),
	}
}

// Name implements provider.TTSProvider.
func (p *TTS) Name() string { return "OpenAI" }

// Synthesize converts text to audio and streams the raw PCM response body.
func (p *TTS) Synthesize(ctx context.Context, text string) (<-chan provider.AudioChunk, error) {
	resp, err := p.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(p.model),
		Input:          text,
		Voice:          oai.AudioSpeechNewParamsVoice(p.voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: speech request: %w", err)
	}

	chunks := make(chan provider.AudioChunk, 16)

	go func() {
		defer resp.Body.Close()
		defer close(chunks)

		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case chunks <- provider.AudioChunk{Data: data, SampleRate: pcmSampleRate}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					p.log.Warn().Err(err).Msg("reading speech response body")
				}
				return
			}
		}
	}()

	return chunks, nil
}
