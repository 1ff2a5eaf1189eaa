package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/provider"
)

const speakEndpoint = "https://api.deepgram.com/v1/speak"

// TTS implements provider.TTSProvider backed by Deepgram's Aura API.
type TTS struct {
	apiKey     string
	model      string
	sampleRate int
	httpClient *http.Client
	log        zerolog.Logger
}

// NewTTS creates a Deepgram Aura TTS provider. httpClient is the session's
// shared pooled client.
func NewTTS(apiKey, model string, sampleRate int, httpClient *http.Client, log zerolog.Logger) *TTS {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &TTS{
		apiKey:     apiKey,
		model:      model,
		sampleRate: sampleRate,
		httpClient: httpClient,
		log:        log.With().Str("provider", "deepgram").Logger(),
	}
}

// Name implements provider.TTSProvider.
func (p *TTS) Name() string { return "Deepgram Aura" }

// speakRequest is the JSON payload for the Aura speak API.
type speakRequest struct {
	Text string `json:"text"`
}

// Synthesize converts text to audio and streams the raw PCM response body.
func (p *TTS) Synthesize(ctx context.Context, text string) (<-chan provider.AudioChunk, error) {
	u, err := url.Parse(speakEndpoint)
	if err != nil {
		return nil, fmt.Errorf("deepgram: parse speak URL: %w", err)
	}
	q := u.Query()
	q.Set("model", p.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(p.sampleRate))
	q.Set("container", "none")
	u.RawQuery = q.Encode()

	body, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("deepgram: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("deepgram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram: speak request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("deepgram: speak API returned status %d", resp.StatusCode)
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
				case chunks <- provider.AudioChunk{Data: data, SampleRate: p.sampleRate}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					p.log.Warn().Err(err).Msg("reading speak response body")
				}
				return
			}
		}
	}()

	return chunks, nil
}
