// Package analytics provides a fire-and-forget NATS publisher for analytics events.
// The forum service reports user, post and reaction activity through it.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every analytics event type.
const (
	SubjectUserRegistered  = "analytics.forum.user_registered"
	SubjectUserLoggedIn    = "analytics.forum.user_logged_in"
	SubjectThreadCreated   = "analytics.forum.thread_created"
	SubjectThreadDeleted   = "analytics.forum.thread_deleted"
	SubjectCommentCreated  = "analytics.forum.comment_created"
	SubjectPostUpdated     = "analytics.forum.post_updated"
	SubjectReactionChanged = "analytics.forum.reaction_changed"
)

// Event is the canonical envelope sent to all analytics.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes analytics events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub (useful in tests and services without NATS).
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log}
}

// Enabled reports whether events actually leave the process.
func (p *Publisher) Enabled() bool {
	return p != nil && p.js != nil
}

// NewEvent builds the envelope Publish sends.
func NewEvent(eventName, userID string, props map[string]any) Event {
	return Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
}

// Publish sends an analytics event asynchronously (fire-and-forget).
// Failures are logged as warnings and never surface to the caller.
// The publisher is safe to call with a nil receiver.
func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if !p.Enabled() {
		return
	}
	data, err := json.Marshal(NewEvent(eventName, userID, props))
	if err != nil {
		p.log.Warn("analytics: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("analytics: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
