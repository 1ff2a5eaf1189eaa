// Package bench contains the benchmark session engine: the anchor-based
// latency clock, the transcription fan-out that broadcasts one audio stream
// to every configured STT provider, the synthesis fan-out that races every
// TTS provider on one text request, and the WebSocket session lifecycle
// that ties them together.
package bench

import (
	"sync/atomic"
	"time"
)

// AnchorClock holds the single most-recent client-reported end-of-speech
// timestamp and measures elapsed time from it. There is exactly one anchor
// per session, overwritten last-write-wins by every new end-of-speech
// signal: all providers are scored against the same instant, so none is
// advantaged by provider-side endpointing.
type AnchorClock struct {
	anchorMS atomic.Int64 // epoch milliseconds; 0 means no anchor set
	now      func() time.Time
}

// NewAnchorClock creates an unanchored clock.
func NewAnchorClock() *AnchorClock {
	return &AnchorClock{now: time.Now}
}

// Mark records an end-of-speech instant. A positive timestampMS (epoch
// milliseconds, as reported by the client VAD) is used as-is; otherwise the
// local clock at receipt time is used.
func (c *AnchorClock) Mark(timestampMS float64) {
	if timestampMS > 0 {
		c.anchorMS.Store(int64(timestampMS))
		return
	}
	c.anchorMS.Store(c.now().UnixMilli())
}

// Anchored reports whether an end-of-speech instant has been recorded.
func (c *AnchorClock) Anchored() bool {
	return c.anchorMS.Load() != 0
}

// ElapsedMS returns the milliseconds between the anchor and receipt,
// clamped at zero. Without an anchor the latency is defined as zero.
func (c *AnchorClock) ElapsedMS(receipt time.Time) float64 {
	anchor := c.anchorMS.Load()
	if anchor == 0 {
		return 0
	}
	elapsed := float64(receipt.UnixMilli() - anchor)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
