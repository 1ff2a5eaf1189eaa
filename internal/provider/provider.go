// Package provider defines the uniform capability interfaces every speech
// provider adapter implements. Provider-specific protocol quirks stay inside
// each adapter; the fan-out layers only ever see these interfaces.
package provider

import "context"

// TranscriptEvent is one normalized event from an STT stream.
type TranscriptEvent struct {
	// Text is the best-alternative transcript text.
	Text string

	// IsFinal distinguishes committed transcripts from revisable interims.
	IsFinal bool

	// Confidence is the provider-reported confidence (0.0 to 1.0), or 0
	// when the provider does not report one.
	Confidence float64
}

// StreamConfig holds provider-agnostic configuration for STT streams.
type StreamConfig struct {
	// SampleRate is the inbound audio sample rate in Hz (e.g. 16000).
	SampleRate int

	// Channels is the number of audio channels (1 for mono).
	Channels int

	// Language is the recognition language code (e.g. "en").
	Language string

	// InterimResults requests revisable partial transcripts.
	InterimResults bool
}

// STTStream is one live bidirectional transcription stream.
type STTStream interface {
	// SendAudio delivers one PCM chunk to the provider. The chunk is
	// read-only; implementations must not mutate it.
	SendAudio(pcm []byte) error

	// Events returns the stream's event channel. The channel is closed
	// when the stream ends, fails, or is closed.
	Events() <-chan TranscriptEvent

	// Close terminates the stream. Idempotent; safe on a dead stream.
	Close() error
}

// STTProvider opens live transcription streams.
type STTProvider interface {
	// Name returns the provider's display name.
	Name() string

	// OpenStream opens a new live transcription stream.
	OpenStream(ctx context.Context, cfg StreamConfig) (STTStream, error)
}

// AudioChunk is one chunk of synthesized audio.
type AudioChunk struct {
	// Data is raw linear PCM.
	Data []byte

	// SampleRate is the chunk's sample rate in Hz, or 0 if the provider
	// did not report one.
	SampleRate int
}

// TTSProvider synthesizes speech from text.
type TTSProvider interface {
	// Name returns the provider's display name.
	Name() string

	// Synthesize streams synthesized audio for text. The returned channel
	// is closed when synthesis completes or fails; a failure after the
	// channel is returned surfaces as an early close.
	Synthesize(ctx context.Context, text string) (<-chan AudioChunk, error)
}
