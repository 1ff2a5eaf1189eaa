package audio

import "testing"

func TestFrameQueue_PushPop(t *testing.T) {
	q := NewFrameQueue(4)

	if dropped := q.Push(NewFrame([]byte{1, 0})); dropped != 0 {
		t.Errorf("Expected no drops, got %d", dropped)
	}
	if q.Len() != 1 {
		t.Errorf("Expected length 1, got %d", q.Len())
	}

	frame := <-q.Frames()
	if frame.Bytes()[0] != 1 {
		t.Errorf("Unexpected frame payload: %v", frame.Bytes())
	}
}

func TestFrameQueue_DropOldest(t *testing.T) {
	q := NewFrameQueue(2)

	q.Push(NewFrame([]byte{1, 0}))
	q.Push(NewFrame([]byte{2, 0}))

	// Queue is full: the oldest frame is evicted to make room.
	if dropped := q.Push(NewFrame([]byte{3, 0})); dropped != 1 {
		t.Errorf("Expected 1 dropped frame, got %d", dropped)
	}

	first := <-q.Frames()
	second := <-q.Frames()
	if first.Bytes()[0] != 2 || second.Bytes()[0] != 3 {
		t.Errorf("Expected frames 2,3 after eviction, got %d,%d", first.Bytes()[0], second.Bytes()[0])
	}
}

func TestFrameQueue_CloseIdempotent(t *testing.T) {
	q := NewFrameQueue(2)
	q.Push(NewFrame([]byte{1, 0}))

	q.Close()
	q.Close() // must not panic

	// Queued frames remain readable after close.
	if _, ok := <-q.Frames(); !ok {
		t.Error("Expected queued frame to remain readable after close")
	}
	if _, ok := <-q.Frames(); ok {
		t.Error("Expected channel to be closed after drain")
	}
}

func TestFrameQueue_PushAfterClose(t *testing.T) {
	q := NewFrameQueue(2)
	q.Close()

	// Must not panic.
	if dropped := q.Push(NewFrame([]byte{1, 0})); dropped != 0 {
		t.Errorf("Expected push after close to be a no-op, got %d drops", dropped)
	}
}
