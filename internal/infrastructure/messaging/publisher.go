// Package messaging publishes domain events to the MQTT broker.
package messaging

import (
	"context"
	"sync"
	"time"
)

// Event types
const (
	EventAssessmentSubmitted = "assessment.submitted"
	EventAssessmentVerified  = "assessment.verified"
	EventAssessmentRejected  = "assessment.rejected"
	EventLocationCreated     = "location.created"
	EventImageUploaded       = "image.uploaded"
	EventNotification        = "notification.created"
)

// Event is the JSON envelope of every published message
type Event struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with the current time in milliseconds
func NewEvent(eventType string, payload interface{}) Event {
	return Event{Type: eventType, Timestamp: time.Now().UnixMilli(), Payload: payload}
}

// Publisher sends events to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close()
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, Event) error { return nil }
func (NoopPublisher) Close()                                        {}

// Published is one event captured by a Recorder
type Published struct {
	Topic string
	Event Event
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) Publish(_ context.Context, topic string, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Topic: topic, Event: event})
	return nil
}

func (r *Recorder) Close() {}

// Events returns a copy of what was published so far
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists the event types published so far
func (r *Recorder) Types() []string {
	var out []string
	for _, p := range r.Events() {
		out = append(out, p.Event.Type)
	}
	return out
}
