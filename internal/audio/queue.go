package audio

import "sync"

// FrameQueue is a bounded queue of audio frames with a drop-oldest policy.
// One queue sits in front of each provider stream so a slow provider falls
// behind on its own frames instead of throttling the inbound audio loop or
// buffering without bound.
type FrameQueue struct {
	mu     sync.Mutex
	ch     chan Frame
	closed bool
}

// NewFrameQueue creates a queue holding at most size frames.
func NewFrameQueue(size int) *FrameQueue {
	if size < 1 {
		size = 1
	}
	return &FrameQueue{ch: make(chan Frame, size)}
}

// Push enqueues a frame without blocking. When the queue is full the oldest
// frame is discarded to make room. Returns the number of frames dropped
// (0 or 1). Pushing to a closed queue is a no-op.
func (q *FrameQueue) Push(f Frame) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}

	select {
	case q.ch <- f:
		return 0
	default:
	}

	// Full: evict the oldest frame, then retry once.
	dropped := 0
	select {
	case <-q.ch:
		dropped = 1
	default:
	}
	select {
	case q.ch <- f:
	default:
		dropped++
	}
	return dropped
}

// Frames returns the receive side of the queue. The channel is closed by
// Close after all queued frames are drained by the consumer.
func (q *FrameQueue) Frames() <-chan Frame {
	return q.ch
}

// Len returns the number of frames currently queued.
func (q *FrameQueue) Len() int {
	return len(q.ch)
}

// Close closes the queue. Idempotent; queued frames remain readable.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
