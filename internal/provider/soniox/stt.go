// Package soniox provides a Soniox-backed STT adapter using the Soniox
// realtime WebSocket API.
package soniox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/provider"
)

const realtimeEndpoint = "wss://stt-rt.soniox.com/transcribe-websocket"

// STT implements provider.STTProvider backed by the Soniox realtime API.
type STT struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// STTOption is a functional option for configuring the STT provider.
type STTOption func(*STT)

// WithBaseURL overrides the WebSocket URL. Primarily used in tests.
func WithBaseURL(url string) STTOption {
	return func(p *STT) { p.baseURL = url }
}

// NewSTT creates a Soniox realtime STT provider. httpClient is the
// session's shared pooled client, used for the WebSocket handshake.
func NewSTT(apiKey, model string, httpClient *http.Client, log zerolog.Logger, opts ...STTOption) *STT {
	p := &STT{
		apiKey:     apiKey,
		model:      model,
		baseURL:    realtimeEndpoint,
		httpClient: httpClient,
		log:        log.With().Str("provider", "soniox").Logger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements provider.STTProvider.
func (p *STT) Name() string { return "Soniox" }

// startRequest is the configuration handshake sent before any audio.
type startRequest struct {
	APIKey        string   `json:"api_key"`
	Model         string   `json:"model"`
	AudioFormat   string   `json:"audio_format"`
	SampleRate    int      `json:"sample_rate"`
	NumChannels   int      `json:"num_channels"`
	LanguageHints []string `json:"language_hints,omitempty"`
}

// response is one Soniox token-stream message.
type response struct {
	Tokens       []token `json:"tokens"`
	ErrorCode    int     `json:"error_code"`
	ErrorMessage string  `json:"error_message"`
}

type token struct {
	Text       string  `json:"text"`
	IsFinal    bool    `json:"is_final"`
	Confidence float64 `json:"confidence"`
}

// OpenStream dials the Soniox endpoint and performs the config handshake.
func (p *STT) OpenStream(ctx context.Context, cfg provider.StreamConfig) (provider.STTStream, error) {
	conn, _, err := websocket.Dial(ctx, p.baseURL, &websocket.DialOptions{
		HTTPClient: p.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("soniox: dial: %w", err)
	}

	start := startRequest{
		APIKey:      p.apiKey,
		Model:       p.model,
		AudioFormat: "pcm_s16le",
		SampleRate:  cfg.SampleRate,
		NumChannels: cfg.Channels,
	}
	if cfg.Language != "" {
		start.LanguageHints = []string{cfg.Language}
	}
	payload, err := json.Marshal(start)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "marshal config")
		return nil, fmt.Errorf("soniox: marshal config: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		conn.Close(websocket.StatusInternalError, "config failed")
		return nil, fmt.Errorf("soniox: send config: %w", err)
	}

	s := &sttStream{
		conn:   conn,
		events: make(chan provider.TranscriptEvent, 64),
		done:   make(chan struct{}),
		log:    p.log,
	}

	s.wg.Add(1)
	go s.readLoop(ctx)

	return s, nil
}

// sttStream is one live Soniox transcription stream.
type sttStream struct {
	conn   *websocket.Conn
	events chan provider.TranscriptEvent
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	log    zerolog.Logger
}

// SendAudio sends one PCM chunk as a binary frame.
func (s *sttStream) SendAudio(pcm []byte) error {
	select {
	case <-s.done:
		return errors.New("soniox: stream is closed")
	default:
	}

	if err := s.conn.Write(context.Background(), websocket.MessageBinary, pcm); err != nil {
		return fmt.Errorf("soniox: send audio: %w", err)
	}
	return nil
}

// Events returns the normalized event channel.
func (s *sttStream) Events() <-chan provider.TranscriptEvent {
	return s.events
}

// Close terminates the stream cleanly. Idempotent.
func (s *sttStream) Close() error {
	s.once.Do(func() {
		close(s.done)
		// An empty binary frame tells Soniox to flush and finalize.
		_ = s.conn.Write(context.Background(), websocket.MessageBinary, nil)
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
		s.wg.Wait()
	})
	return nil
}

// readLoop receives token-stream messages and dispatches normalized events.
// It is the sole sender on, and closer of, the events channel.
func (s *sttStream) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.events)

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			return
		}

		events, err := parseResponse(msg)
		if err != nil {
			s.log.Error().Err(err).Msg("token stream error")
			return
		}

		for _, ev := range events {
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// parseResponse converts one Soniox message into zero, one, or two
// normalized events: a final event covering the message's final tokens and
// an interim event covering its non-final tail.
func parseResponse(msg []byte) ([]provider.TranscriptEvent, error) {
	var resp response
	if err := json.Unmarshal(msg, &resp); err != nil {
		// Non-JSON frames are ignored, not fatal.
		return nil, nil
	}
	if resp.ErrorCode != 0 {
		return nil, fmt.Errorf("soniox: %d %s", resp.ErrorCode, resp.ErrorMessage)
	}

	var finalText, interimText strings.Builder
	var finalConf float64
	var finalCount int

	for _, tok := range resp.Tokens {
		// "<end>" is Soniox's endpoint-detection marker, not speech.
		if tok.Text == "<end>" {
			continue
		}
		if tok.IsFinal {
			finalText.WriteString(tok.Text)
			finalConf += tok.Confidence
			finalCount++
		} else {
			interimText.WriteString(tok.Text)
		}
	}

	var events []provider.TranscriptEvent
	if finalCount > 0 {
		events = append(events, provider.TranscriptEvent{
			Text:       strings.TrimSpace(finalText.String()),
			IsFinal:    true,
			Confidence: finalConf / float64(finalCount),
		})
	}
	if interimText.Len() > 0 {
		events = append(events, provider.TranscriptEvent{
			Text: strings.TrimSpace(interimText.String()),
		})
	}
	return events, nil
}
