package audio

import "time"

// Inbound audio format: 16kHz 16-bit mono linear PCM.
const (
	SampleRate     = 16000
	BitDepth       = 16
	Channels       = 1
	bytesPerSample = BitDepth / 8
)

// Frame is one chunk of linear PCM audio. A Frame is immutable once
// constructed and may be shared read-only across every provider stream;
// no consumer may mutate the underlying bytes.
type Frame struct {
	pcm        []byte
	sampleRate int
}

// NewFrame wraps raw PCM bytes in a Frame at the default inbound rate.
// The caller must not modify pcm after the call.
func NewFrame(pcm []byte) Frame {
	return Frame{pcm: pcm, sampleRate: SampleRate}
}

// NewFrameWithRate wraps raw PCM bytes at an explicit sample rate.
func NewFrameWithRate(pcm []byte, sampleRate int) Frame {
	return Frame{pcm: pcm, sampleRate: sampleRate}
}

// Bytes returns the raw PCM payload. Callers must treat it as read-only.
func (f Frame) Bytes() []byte { return f.pcm }

// Samples returns the number of samples per channel described by the frame.
func (f Frame) Samples() int { return len(f.pcm) / bytesPerSample }

// SampleRate returns the frame's sample rate in Hz.
func (f Frame) SampleRate() int { return f.sampleRate }

// Duration returns the playback duration of the frame.
func (f Frame) Duration() time.Duration {
	if f.sampleRate == 0 {
		return 0
	}
	return time.Duration(f.Samples()) * time.Second / time.Duration(f.sampleRate)
}
