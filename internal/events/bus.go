package events

import (
	"sync"
	"time"

	"echolog/internal/domain"
)

// Type classifies messages emitted during a pipeline run.
type Type string

const (
	TypeState      Type = "state"
	TypeLevels     Type = "levels"
	TypeTranscript Type = "transcript"
	TypeError      Type = "error"
)

// Event is a sequenced payload consumed by the CLI renderer.
type Event struct {
	Seq             int64                  `json:"seq"`
	Timestamp       time.Time              `json:"timestamp"`
	Type            Type                   `json:"type"`
	State           domain.SessionState    `json:"state,omitempty"`
	Message         string                 `json:"message,omitempty"`
	Levels          *domain.LevelSnapshot  `json:"levels,omitempty"`
	Transcript      string                 `json:"transcript,omitempty"`
	RecordingID     domain.RecordingID     `json:"recordingId,omitempty"`
	TranscriptionID domain.TranscriptionID `json:"transcriptionId,omitempty"`
}

// Bus stores recent events, provides incremental reads, and fans out
// to a single live subscriber channel when attached.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	live      chan Event
}

// NewBus creates a bounded in-memory event buffer.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp. The
// live channel send is non-blocking; a slow subscriber drops frames
// rather than stalling the pipeline.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
	live := b.live
	b.mu.Unlock()

	if live != nil {
		select {
		case live <- event:
		default:
		}
	}
	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Subscribe attaches the single live channel and returns it.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 64
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.live == nil {
		b.live = make(chan Event, buffer)
	}
	return b.live
}
