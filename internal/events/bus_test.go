package events

import (
	"testing"

	"echolog/internal/domain"
)

// TestBusAssignsMonotonicSequence verifies publish ordering.
func TestBusAssignsMonotonicSequence(t *testing.T) {
	bus := NewBus(10)

	first := bus.Publish(Event{Type: TypeState, State: domain.StateRecording})
	second := bus.Publish(Event{Type: TypeState, State: domain.StateStopped})

	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("seq = %d, %d, want 1, 2", first.Seq, second.Seq)
	}
	if first.Timestamp.IsZero() || second.Timestamp.IsZero() {
		t.Fatal("expected timestamps assigned on publish")
	}
}

// TestBusSinceReturnsOnlyNewerEvents checks incremental reads.
func TestBusSinceReturnsOnlyNewerEvents(t *testing.T) {
	bus := NewBus(10)
	bus.Publish(Event{Type: TypeState, Message: "one"})
	bus.Publish(Event{Type: TypeState, Message: "two"})
	bus.Publish(Event{Type: TypeState, Message: "three"})

	got := bus.Since(1)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Message != "two" || got[1].Message != "three" {
		t.Fatalf("messages = %q, %q", got[0].Message, got[1].Message)
	}

	if got := bus.Since(3); len(got) != 0 {
		t.Fatalf("up-to-date reader got %d events, want 0", len(got))
	}
}

// TestBusDropsOldestWhenFull verifies the bounded buffer.
func TestBusDropsOldestWhenFull(t *testing.T) {
	bus := NewBus(3)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Type: TypeState})
	}

	got := bus.Since(0)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Seq != 3 || got[2].Seq != 5 {
		t.Fatalf("kept seqs %d..%d, want 3..5", got[0].Seq, got[2].Seq)
	}
}

// TestBusSlowSubscriberNeverBlocksPublish checks the non-blocking
// live channel send.
func TestBusSlowSubscriberNeverBlocksPublish(t *testing.T) {
	bus := NewBus(100)
	ch := bus.Subscribe(1)

	// Nothing drains ch; only the first event fits its buffer.
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Type: TypeLevels})
	}

	select {
	case event := <-ch:
		if event.Seq != 1 {
			t.Fatalf("live event seq = %d, want 1", event.Seq)
		}
	default:
		t.Fatal("expected one buffered live event")
	}

	// The backlog is still complete even though frames were dropped
	// from the live channel.
	if got := bus.Since(0); len(got) != 10 {
		t.Fatalf("backlog len = %d, want 10", len(got))
	}
}

// TestBusSubscribeReturnsSameChannel verifies the single-subscriber
// contract.
func TestBusSubscribeReturnsSameChannel(t *testing.T) {
	bus := NewBus(10)
	a := bus.Subscribe(4)
	b := bus.Subscribe(8)
	if a != b {
		t.Fatal("expected repeated subscribe to reuse the live channel")
	}
}
