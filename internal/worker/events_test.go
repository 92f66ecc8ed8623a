package worker

import "testing"

func TestEventBus_SequenceAndSince(t *testing.T) {
	bus := NewEventBus(10)

	if got := bus.Since(0); got != nil {
		t.Errorf("empty bus returned %v", got)
	}

	for i := 0; i < 5; i++ {
		e := bus.Publish(Event{Type: EventVideoCompleted, VideoID: "v"})
		if e.Seq != int64(i+1) {
			t.Errorf("publish %d assigned seq %d", i, e.Seq)
		}
		if e.Timestamp.IsZero() {
			t.Error("publish left timestamp zero")
		}
	}

	all := bus.Since(0)
	if len(all) != 5 {
		t.Fatalf("Since(0) returned %d events, want 5", len(all))
	}

	tail := bus.Since(3)
	if len(tail) != 2 || tail[0].Seq != 4 || tail[1].Seq != 5 {
		t.Errorf("Since(3) = %v, want seqs 4 and 5", tail)
	}

	if got := bus.Since(99); len(got) != 0 {
		t.Errorf("Since past the end returned %d events", len(got))
	}
}

func TestEventBus_BoundedBuffer(t *testing.T) {
	bus := NewEventBus(3)
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Type: EventVideoFailed})
	}

	got := bus.Since(0)
	if len(got) != 3 {
		t.Fatalf("bounded bus kept %d events, want 3", len(got))
	}
	// Oldest events are dropped; sequence numbers keep climbing.
	if got[0].Seq != 8 || got[2].Seq != 10 {
		t.Errorf("kept seqs %d..%d, want 8..10", got[0].Seq, got[2].Seq)
	}
}
