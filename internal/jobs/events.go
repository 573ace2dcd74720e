package jobs

import (
	"sync"
	"time"

	"media-merger/internal/domain"
)

// EventType classifies messages emitted around a submission.
type EventType string

const (
	EventTypeSelection EventType = "selection"
	EventTypeStatus    EventType = "status"
	EventTypeResult    EventType = "result"
	EventTypeError     EventType = "error"
)

// Event is a sequenced payload consumed by the frontend.
type Event struct {
	Seq          int64                   `json:"seq"`
	Timestamp    time.Time               `json:"timestamp"`
	SubmissionID string                  `json:"submissionId,omitempty"`
	Type         EventType               `json:"type"`
	Status       domain.SubmissionStatus `json:"status,omitempty"`
	Kind         domain.MediaKind        `json:"kind,omitempty"`
	Message      string                  `json:"message,omitempty"`
	MediaURL     string                  `json:"mediaUrl,omitempty"`
	StatusCode   int                     `json:"statusCode,omitempty"`
	Bytes        int64                   `json:"bytes,omitempty"`
}

// EventBus keeps a bounded history of events for incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 200
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if over := len(b.events) - b.maxEvents; over > 0 {
		b.events = append([]Event(nil), b.events[over:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Last returns the newest sequence number, or zero when empty.
func (b *EventBus) Last() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextSeq
}
