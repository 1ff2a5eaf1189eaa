package bench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hikaku/voicebench/internal/audio"
	"github.com/hikaku/voicebench/internal/observability"
	"github.com/hikaku/voicebench/internal/provider"
)

// ProviderInfo identifies one provider column in the UI.
type ProviderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is one normalized transcription event on the merged outbound
// stream. Events are interleaved in arrival order across providers;
// consumers key on ProviderID to reconstruct per-provider history.
type Event struct {
	Provider    string  `json:"provider"`
	ProviderID  string  `json:"provider_id"`
	Text        string  `json:"text"`
	IsFinal     bool    `json:"is_final"`
	Confidence  float64 `json:"confidence"`
	TimestampMS float64 `json:"timestamp"`
	LatencyMS   float64 `json:"latency_ms"`
}

// sttSlot is one provider's seat in the fan-out. The slot exclusively owns
// its stream, its bounded audio queue, and its two goroutines (pump and
// reader); no state is shared between slots except the anchor clock.
type sttSlot struct {
	info     ProviderInfo
	provider provider.STTProvider
	stream   provider.STTStream
	queue    *audio.FrameQueue
	alive    atomic.Bool
	openErr  error
}

// TranscriptionFanout broadcasts one audio stream to every configured STT
// provider and merges their event streams into one outbound channel.
type TranscriptionFanout struct {
	slots     []*sttSlot
	streamCfg provider.StreamConfig
	clock     *AnchorClock
	events    chan Event
	now       func() time.Time
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewTranscriptionFanout creates a fan-out over providers. Provider IDs are
// assigned here, before any stream is opened, so the ID set is stable even
// when some providers fail to open.
func NewTranscriptionFanout(providers []provider.STTProvider, streamCfg provider.StreamConfig, queueSize, eventBuf int, log zerolog.Logger) *TranscriptionFanout {
	taken := make(map[string]bool)
	slots := make([]*sttSlot, 0, len(providers))
	for _, p := range providers {
		slots = append(slots, &sttSlot{
			info: ProviderInfo{
				ID:   provider.UniqueID(p.Name(), taken),
				Name: p.Name(),
			},
			provider: p,
			queue:    audio.NewFrameQueue(queueSize),
		})
	}

	return &TranscriptionFanout{
		slots:     slots,
		streamCfg: streamCfg,
		clock:     NewAnchorClock(),
		events:    make(chan Event, eventBuf),
		now:       time.Now,
		log:       log,
	}
}

// Start opens every provider stream concurrently and starts one pump and
// one reader goroutine per live provider. Provider setup failures are
// isolated: a provider that fails to open is logged and excluded without
// blocking the others. Start fails only when no provider opened.
func (f *TranscriptionFanout) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	var g errgroup.Group
	for _, slot := range f.slots {
		slot := slot
		g.Go(func() error {
			stream, err := slot.provider.OpenStream(f.ctx, f.streamCfg)
			if err != nil {
				slot.openErr = err
				f.log.Error().Err(err).Str("provider", slot.info.ID).Msg("failed to open provider stream")
				observability.RecordError("stt_open_error", slot.info.ID)
				return nil
			}
			slot.stream = stream
			slot.alive.Store(true)
			return nil
		})
	}
	_ = g.Wait()

	live := 0
	for _, slot := range f.slots {
		if slot.stream == nil {
			continue
		}
		live++
		f.wg.Add(2)
		go f.pump(slot)
		go f.read(slot)
	}
	if live == 0 {
		return fmt.Errorf("no transcription providers available")
	}

	f.log.Info().Int("providers", live).Msg("transcription fanout started")
	return nil
}

// Providers returns the {id, name} list of live providers, in configuration
// order, so a consumer can render one column per provider before any audio
// arrives.
func (f *TranscriptionFanout) Providers() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(f.slots))
	for _, slot := range f.slots {
		if slot.stream == nil {
			continue
		}
		infos = append(infos, slot.info)
	}
	return infos
}

// PushAudio broadcasts one frame to every live provider without blocking on
// any of them. A slow provider drops its own oldest frames; a dead provider
// is skipped.
func (f *TranscriptionFanout) PushAudio(frame audio.Frame) {
	for _, slot := range f.slots {
		if !slot.alive.Load() {
			continue
		}
		if dropped := slot.queue.Push(frame); dropped > 0 {
			observability.RecordDroppedFrame(slot.info.ID)
			f.log.Debug().Str("provider", slot.info.ID).Msg("provider queue full, dropped oldest frame")
		}
	}
}

// HandleSpeechEnd records a client VAD end-of-speech signal, using the
// caller-supplied epoch-ms timestamp if present.
func (f *TranscriptionFanout) HandleSpeechEnd(timestampMS float64) {
	f.clock.Mark(timestampMS)
	f.log.Debug().Float64("timestamp", timestampMS).Msg("client VAD speech end")
}

// Events returns the merged outbound event channel. It is closed by Close
// after every reader has stopped.
func (f *TranscriptionFanout) Events() <-chan Event {
	return f.events
}

// Close tears down every provider stream concurrently and stops all
// goroutines. Idempotent; tolerant of providers that already failed.
func (f *TranscriptionFanout) Close() {
	f.closeOnce.Do(func() {
		if f.cancel != nil {
			f.cancel()
		}

		var cw sync.WaitGroup
		for _, slot := range f.slots {
			if slot.stream == nil {
				continue
			}
			slot := slot
			cw.Add(1)
			go func() {
				defer cw.Done()
				slot.alive.Store(false)
				slot.queue.Close()
				if err := slot.stream.Close(); err != nil {
					f.log.Warn().Err(err).Str("provider", slot.info.ID).Msg("closing provider stream")
				}
			}()
		}
		cw.Wait()

		f.wg.Wait()
		close(f.events)
	})
}

// pump drains one provider's bounded queue into its stream. A send failure
// is logged and marks the provider dead; it never propagates.
func (f *TranscriptionFanout) pump(slot *sttSlot) {
	defer f.wg.Done()

	for frame := range slot.queue.Frames() {
		if !slot.alive.Load() {
			continue
		}
		if err := slot.stream.SendAudio(frame.Bytes()); err != nil {
			f.log.Warn().Err(err).Str("provider", slot.info.ID).Msg("failed to push frame")
			observability.RecordError("stt_send_error", slot.info.ID)
			slot.alive.Store(false)
		}
	}
}

// read consumes one provider's event stream until it ends, normalizing each
// event onto the merged outbound channel. Latency is computed from the
// shared VAD anchor only, never from provider-reported timestamps.
func (f *TranscriptionFanout) read(slot *sttSlot) {
	defer f.wg.Done()

	for {
		select {
		case ev, ok := <-slot.stream.Events():
			if !ok {
				f.log.Info().Str("provider", slot.info.ID).Msg("provider stream finished")
				slot.alive.Store(false)
				return
			}

			// Empty interims carry no signal for the comparison.
			if !ev.IsFinal && ev.Text == "" {
				continue
			}

			receipt := f.now()
			latency := 0.0
			if ev.IsFinal {
				latency = f.clock.ElapsedMS(receipt)
				observability.ObserveFinalLatency(slot.info.ID, latency/1000)
			}
			observability.RecordTranscriptionEvent(slot.info.ID, ev.IsFinal)

			out := Event{
				Provider:    slot.info.Name,
				ProviderID:  slot.info.ID,
				Text:        ev.Text,
				IsFinal:     ev.IsFinal,
				Confidence:  ev.Confidence,
				TimestampMS: float64(receipt.UnixMilli()),
				LatencyMS:   latency,
			}

			select {
			case f.events <- out:
			case <-f.ctx.Done():
				return
			}

		case <-f.ctx.Done():
			return
		}
	}
}
