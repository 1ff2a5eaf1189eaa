// Package deepgram provides Deepgram-backed STT and TTS adapters. Streaming
// transcription uses the Deepgram Go SDK's callback WebSocket client; speech
// synthesis uses the Aura HTTP API.
package deepgram

import (
	"context"
	"fmt"
	"sync"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/provider"
)

// STT implements provider.STTProvider backed by Deepgram's streaming API.
type STT struct {
	apiKey string
	model  string
	log    zerolog.Logger
}

// NewSTT creates a Deepgram streaming STT provider.
func NewSTT(apiKey, model string, log zerolog.Logger) *STT {
	return &STT{
		apiKey: apiKey,
		model:  model,
		log:    log.With().Str("provider", "deepgram").Logger(),
	}
}

// Name implements provider.STTProvider.
func (p *STT) Name() string { return "Deepgram" }

// OpenStream opens a live transcription stream.
func (p *STT) OpenStream(ctx context.Context, cfg provider.StreamConfig) (provider.STTStream, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	s := &sttStream{
		events: make(chan provider.TranscriptEvent, 64),
		cancel: cancel,
		log:    p.log,
	}

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          p.model,
		Language:       cfg.Language,
		Punctuate:      true,
		InterimResults: cfg.InterimResults,
		Encoding:       "linear16",
		Channels:       cfg.Channels,
		SampleRate:     cfg.SampleRate,
	}

	// The SDK drives callbacks from a single read goroutine, so the
	// handler is the sole writer/closer of the events channel.
	callback := &callbackHandler{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		stream:                 s,
	}

	client, err := listenClient.NewWSUsingCallback(streamCtx, p.apiKey, nil, tOptions, callback)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("deepgram: create client: %w", err)
	}
	s.client = client

	return s, nil
}

// sttStream is one live Deepgram transcription stream.
type sttStream struct {
	client *listenClient.WSCallback
	events chan provider.TranscriptEvent
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	eventsOnce sync.Once
	log        zerolog.Logger
}

// SendAudio delivers one PCM chunk to Deepgram.
func (s *sttStream) SendAudio(pcm []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("deepgram: stream is closed")
	}

	if _, err := s.client.Write(pcm); err != nil {
		return fmt.Errorf("deepgram: send audio: %w", err)
	}
	return nil
}

// Events returns the normalized event channel.
func (s *sttStream) Events() <-chan provider.TranscriptEvent {
	return s.events
}

// Close terminates the stream. Idempotent.
func (s *sttStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Finish flushes pending audio and closes the WebSocket; the SDK then
	// fires the Close callback, which closes the events channel.
	s.client.Finish()
	s.cancel()
	return nil
}

func (s *sttStream) closeEvents() {
	s.eventsOnce.Do(func() { close(s.events) })
}

// callbackHandler implements the SDK's LiveMessageCallback interface. It
// embeds the default handler and overrides only the methods it needs.
type callbackHandler struct {
	*websocketv1api.DefaultCallbackHandler
	stream *sttStream
}

// Message normalizes a transcription result onto the stream's event channel.
func (h *callbackHandler) Message(msg *msginterfaces.MessageResponse) error {
	if msg == nil || len(msg.Channel.Alternatives) == 0 {
		return nil
	}

	alt := msg.Channel.Alternatives[0]
	ev := provider.TranscriptEvent{
		Text:       alt.Transcript,
		IsFinal:    msg.IsFinal,
		Confidence: alt.Confidence,
	}

	select {
	case h.stream.events <- ev:
	default:
		h.stream.log.Warn().Msg("event channel full, dropping transcript")
	}
	return nil
}

// Error ends the stream; the reader observes the closed events channel.
func (h *callbackHandler) Error(errResp *msginterfaces.ErrorResponse) error {
	h.stream.log.Error().Msgf("stream error: %+v", errResp)
	h.stream.closeEvents()
	return nil
}

// Close marks the end of the stream.
func (h *callbackHandler) Close(cr *msginterfaces.CloseResponse) error {
	h.stream.closeEvents()
	return nil
}
