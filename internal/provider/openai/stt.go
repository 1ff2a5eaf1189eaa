// Package openai provides OpenAI-backed STT and TTS adapters. Streaming
// transcription uses the Realtime API over a raw WebSocket; speech synthesis
// uses the official openai-go client.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/provider"
)

const realtimeEndpoint = "wss://api.openai.com/v1/realtime?intent=transcription"

// STT implements provider.STTProvider backed by the OpenAI Realtime
// transcription API.
type STT struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// STTOption is a functional option for configuring the STT provider.
type STTOption func(*STT)

// WithSTTBaseURL overrides the Realtime WebSocket URL. Primarily used in
// tests to point at a local mock server.
func WithSTTBaseURL(url string) STTOption {
	return func(p *STT) { p.baseURL = url }
}

// NewSTT creates an OpenAI Realtime transcription provider. httpClient is
// the session's shared pooled client, used for the WebSocket handshake.
func NewSTT(apiKey, model string, httpClient *http.Client, log zerolog.Logger, opts ...STTOption) *STT {
	p := &STT{
		apiKey:     apiKey,
		model:      model,
		baseURL:    realtimeEndpoint,
		httpClient: httpClient,
		log:        log.With().Str("provider", "openai").Logger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements provider.STTProvider.
func (p *STT) Name() string { return "OpenAI" }

// sessionUpdate configures the transcription session after connect.
type sessionUpdate struct {
	Type    string               `json:"type"`
	Session transcriptionSession `json:"session"`
}

type transcriptionSession struct {
	InputAudioFormat        string             `json:"input_audio_format"`
	InputAudioTranscription transcriptionModel `json:"input_audio_transcription"`
	TurnDetection           turnDetection      `json:"turn_detection"`
}

type transcriptionModel struct {
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

type turnDetection struct {
	Type string `json:"type"`
}

// appendEvent carries one base64 audio chunk to the server.
type appendEvent struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// realtimeEvent is the subset of server events this adapter consumes.
type realtimeEvent struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	Error      struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenStream dials the Realtime endpoint and configures a transcription
// session for raw PCM16 input.
func (p *STT) OpenStream(ctx context.Context, cfg provider.StreamConfig) (provider.STTStream, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+p.apiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := websocket.Dial(ctx, p.baseURL, &websocket.DialOptions{
		HTTPClient: p.httpClient,
		HTTPHeader: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: dial realtime: %w", err)
	}

	update := sessionUpdate{
		Type: "transcription_session.update",
		Session: transcriptionSession{
			InputAudioFormat: "pcm16",
			InputAudioTranscription: transcriptionModel{
				Model:    p.model,
				Language: cfg.Language,
			},
			TurnDetection: turnDetection{Type: "server_vad"},
		},
	}
	payload, err := json.Marshal(update)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "marshal session update")
		return nil, fmt.Errorf("openai: marshal session update: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		conn.Close(websocket.StatusInternalError, "session update failed")
		return nil, fmt.Errorf("openai: send session update: %w", err)
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

// sttStream is one live Realtime transcription stream.
type sttStream struct {
	conn   *websocket.Conn
	events chan provider.TranscriptEvent
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	log    zerolog.Logger
}

// SendAudio appends one PCM chunk to the server-side input buffer.
func (s *sttStream) SendAudio(pcm []byte) error {
	select {
	case <-s.done:
		return errors.New("openai: stream is closed")
	default:
	}

	ev := appendEvent{
		Type:  "input_audio_buffer.append",
		Audio: base64.StdEncoding.EncodeToString(pcm),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("openai: marshal audio append: %w", err)
	}
	if err := s.conn.Write(context.Background(), websocket.MessageText, payload); err != nil {
		return fmt.Errorf("openai: send audio: %w", err)
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
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
		s.wg.Wait()
	})
	return nil
}

// readLoop receives server events and dispatches normalized transcripts.
// It is the sole sender on, and closer of, the events channel.
func (s *sttStream) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.events)

	// Interim deltas accumulate until the item completes.
	var interim string

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation.
			return
		}

		var ev realtimeEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}

		var out provider.TranscriptEvent
		switch ev.Type {
		case "conversation.item.input_audio_transcription.delta":
			interim += ev.Delta
			out = provider.TranscriptEvent{Text: interim}
		case "conversation.item.input_audio_transcription.completed":
			interim = ""
			out = provider.TranscriptEvent{Text: ev.Transcript, IsFinal: true}
		case "error":
			s.log.Error().Str("message", ev.Error.Message).Msg("realtime error")
			continue
		default:
			continue
		}

		select {
		case s.events <- out:
		case <-s.done:
			return
		}
	}
}
