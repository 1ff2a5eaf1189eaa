package audio

import (
	"testing"
	"time"
)

func TestFrame_Samples(t *testing.T) {
	// 2xS bytes of 16-bit PCM describe S samples.
	pcm := make([]byte, 640)
	frame := NewFrame(pcm)

	if frame.Samples() != 320 {
		t.Errorf("Expected 320 samples, got %d", frame.Samples())
	}

	if frame.SampleRate() != SampleRate {
		t.Errorf("Expected sample rate %d, got %d", SampleRate, frame.SampleRate())
	}
}

func TestFrame_Duration(t *testing.T) {
	// 320 samples at 16kHz is 20ms.
	frame := NewFrame(make([]byte, 640))

	if frame.Duration() != 20*time.Millisecond {
		t.Errorf("Expected 20ms duration, got %v", frame.Duration())
	}
}

func TestFrame_DurationWithRate(t *testing.T) {
	// 480 samples at 24kHz is 20ms.
	frame := NewFrameWithRate(make([]byte, 960), 24000)

	if frame.Duration() != 20*time.Millisecond {
		t.Errorf("Expected 20ms duration, got %v", frame.Duration())
	}
}

func TestFrame_Empty(t *testing.T) {
	frame := NewFrame(nil)

	if frame.Samples() != 0 {
		t.Errorf("Expected 0 samples, got %d", frame.Samples())
	}
	if frame.Duration() != 0 {
		t.Errorf("Expected 0 duration, got %v", frame.Duration())
	}
}
