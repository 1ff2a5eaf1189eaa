package bench

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hikaku/voicebench/internal/provider"
)

type fakeTTS struct {
	name   string
	err    error
	chunks []provider.AudioChunk
}

func (p *fakeTTS) Name() string { return p.name }

func (p *fakeTTS) Synthesize(ctx context.Context, text string) (<-chan provider.AudioChunk, error) {
	if p.err != nil {
		return nil, p.err
	}
	ch := make(chan provider.AudioChunk, len(p.chunks))
	for _, c := range p.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func TestSynthesisFanout_CollectAll(t *testing.T) {
	providers := []provider.TTSProvider{
		&fakeTTS{name: "Alpha", chunks: []provider.AudioChunk{{Data: []byte{1, 2, 3, 4}, SampleRate: 24000}}},
		&fakeTTS{name: "Beta", err: errors.New("quota exceeded")},
		&fakeTTS{name: "Gamma", chunks: []provider.AudioChunk{{Data: []byte{5, 6}}, {Data: []byte{7, 8}}}},
	}

	f := NewSynthesisFanout(providers, 24000, nil, zerolog.Nop())
	defer f.Close()

	results := f.Synthesize(context.Background(), "hello world")
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	alpha := results[0]
	if alpha.Error != nil {
		t.Errorf("Expected Alpha to succeed, got error %q", *alpha.Error)
	}
	if alpha.AudioBase64 == nil {
		t.Fatal("Expected Alpha audio payload")
	}
	wav, err := base64.StdEncoding.DecodeString(*alpha.AudioBase64)
	if err != nil {
		t.Fatalf("Alpha payload is not valid base64: %v", err)
	}
	if len(wav) != 44+4 {
		t.Errorf("Expected 48-byte WAV, got %d bytes", len(wav))
	}

	beta := results[1]
	if beta.Error == nil || *beta.Error != "quota exceeded" {
		t.Errorf("Expected Beta error 'quota exceeded', got %v", beta.Error)
	}
	if beta.AudioBase64 != nil {
		t.Error("Expected no Beta audio payload")
	}
	if beta.TTFBMs != 0 || beta.TotalTimeMs != 0 {
		t.Errorf("Expected zeroed Beta timings, got ttfb=%v total=%v", beta.TTFBMs, beta.TotalTimeMs)
	}

	gamma := results[2]
	if gamma.Error != nil {
		t.Errorf("Expected Gamma to succeed, got error %q", *gamma.Error)
	}
	if gamma.ProviderID != "gamma" {
		t.Errorf("Expected provider id 'gamma', got %q", gamma.ProviderID)
	}
}

func TestSynthesisFanout_EmptyText(t *testing.T) {
	called := &fakeTTS{name: "Alpha", chunks: []provider.AudioChunk{{Data: []byte{1, 2}}}}
	f := NewSynthesisFanout([]provider.TTSProvider{called}, 24000, nil, zerolog.Nop())

	for _, text := range []string{"", "   ", "\n\t"} {
		results := f.Synthesize(context.Background(), text)
		if len(results) != 0 {
			t.Errorf("Expected no results for %q, got %d", text, len(results))
		}
	}
}

func TestSynthesisFanout_NoAudio(t *testing.T) {
	f := NewSynthesisFanout([]provider.TTSProvider{&fakeTTS{name: "Alpha"}}, 24000, nil, zerolog.Nop())

	results := f.Synthesize(context.Background(), "hello")
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil || *results[0].Error != "provider returned no audio" {
		t.Errorf("Expected 'provider returned no audio', got %v", results[0].Error)
	}
}

func TestSynthesisFanout_SampleRate(t *testing.T) {
	providers := []provider.TTSProvider{
		// No chunk rate: fall back to the fan-out default.
		&fakeTTS{name: "Alpha", chunks: []provider.AudioChunk{{Data: []byte{1, 2}}}},
		// Chunk rate wins over the default.
		&fakeTTS{name: "Beta", chunks: []provider.AudioChunk{{Data: []byte{3, 4}, SampleRate: 8000}}},
	}

	f := NewSynthesisFanout(providers, 24000, nil, zerolog.Nop())
	results := f.Synthesize(context.Background(), "hello")

	wantRates := []uint32{24000, 8000}
	for i, want := range wantRates {
		if results[i].AudioBase64 == nil {
			t.Fatalf("Expected audio for result %d", i)
		}
		wav, err := base64.StdEncoding.DecodeString(*results[i].AudioBase64)
		if err != nil {
			t.Fatalf("Result %d is not valid base64: %v", i, err)
		}
		if got := binary.LittleEndian.Uint32(wav[24:28]); got != want {
			t.Errorf("Result %d: expected sample rate %d, got %d", i, want, got)
		}
	}
}

func TestSynthesisFanout_Timing(t *testing.T) {
	f := NewSynthesisFanout([]provider.TTSProvider{
		&fakeTTS{name: "Alpha", chunks: []provider.AudioChunk{{Data: []byte{1, 2}}}},
	}, 24000, nil, zerolog.Nop())

	// Step the clock: start, first byte, completion.
	steps := []int64{0, 100, 250}
	var mu sync.Mutex
	idx := 0
	f.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ms := steps[idx]
		if idx < len(steps)-1 {
			idx++
		}
		return time.UnixMilli(ms)
	}

	results := f.Synthesize(context.Background(), "hello")
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].TTFBMs != 100 {
		t.Errorf("Expected TTFB 100ms, got %v", results[0].TTFBMs)
	}
	if results[0].TotalTimeMs != 250 {
		t.Errorf("Expected total 250ms, got %v", results[0].TotalTimeMs)
	}
}

func TestSynthesisFanout_DuplicateNames(t *testing.T) {
	f := NewSynthesisFanout([]provider.TTSProvider{
		&fakeTTS{name: "OpenAI"},
		&fakeTTS{name: "OpenAI"},
	}, 24000, nil, zerolog.Nop())

	infos := f.Providers()
	if len(infos) != 2 {
		t.Fatalf("Expected 2 providers, got %d", len(infos))
	}
	if infos[0].ID != "openai" || infos[1].ID != "openai-2" {
		t.Errorf("Expected ids openai/openai-2, got %q/%q", infos[0].ID, infos[1].ID)
	}
	if infos[0].Name != "OpenAI" || infos[1].Name != "OpenAI" {
		t.Errorf("Display names must keep the configured form, got %q/%q", infos[0].Name, infos[1].Name)
	}
}

func TestSynthesisFanout_CloseIdempotent(t *testing.T) {
	f := NewSynthesisFanout(nil, 24000, nil, zerolog.Nop())
	f.Close()
	f.Close() // must not panic
}
