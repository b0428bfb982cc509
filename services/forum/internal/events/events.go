// Package events announces forum mutations. Content changes go out on the
// core NATS subject forum.changed so clients can refresh; every change is
// also reported to the analytics stream.
package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/forum-platform/internal/platform/analytics"
)

const SubjectChanged = "forum.changed"

const (
	KindUserRegistered  = "user_registered"
	KindUserLoggedIn    = "user_logged_in"
	KindThreadCreated   = "thread_created"
	KindThreadDeleted   = "thread_deleted"
	KindCommentCreated  = "comment_created"
	KindPostUpdated     = "post_updated"
	KindReactionChanged = "reaction_changed"
)

var analyticsSubjects = map[string]string{
	KindUserRegistered:  analytics.SubjectUserRegistered,
	KindUserLoggedIn:    analytics.SubjectUserLoggedIn,
	KindThreadCreated:   analytics.SubjectThreadCreated,
	KindThreadDeleted:   analytics.SubjectThreadDeleted,
	KindCommentCreated:  analytics.SubjectCommentCreated,
	KindPostUpdated:     analytics.SubjectPostUpdated,
	KindReactionChanged: analytics.SubjectReactionChanged,
}

// Change is one mutation. Props are analytics-only.
type Change struct {
	Kind     string         `json:"kind"`
	UserID   string         `json:"user_id,omitempty"`
	PostID   int64          `json:"post_id,omitempty"`
	ThreadID int64          `json:"thread_id,omitempty"`
	At       time.Time      `json:"at"`
	Props    map[string]any `json:"-"`
}

// Visible reports whether readers of the forum can observe the change.
func (c Change) Visible() bool {
	return c.PostID != 0
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// Publisher fans a Change out to NATS. A nil connection keeps only analytics,
// and a disabled analytics publisher drops those events.
type Publisher struct {
	nc        publisher
	analytics *analytics.Publisher
	log       *zap.Logger
}

func New(nc *nats.Conn, a *analytics.Publisher, log *zap.Logger) *Publisher {
	p := &Publisher{analytics: a, log: log}
	if nc != nil {
		p.nc = nc
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Emit never fails the caller; publish errors are logged.
func (p *Publisher) Emit(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	if c.Visible() && p.nc != nil {
		data, err := json.Marshal(c)
		if err == nil {
			err = p.nc.Publish(SubjectChanged, data)
		}
		if err != nil {
			p.log.Warn("publish change", zap.String("kind", c.Kind), zap.Error(err))
		}
	}

	subject, ok := analyticsSubjects[c.Kind]
	if !ok {
		return
	}
	props := make(map[string]any, len(c.Props)+2)
	for k, v := range c.Props {
		props[k] = v
	}
	if c.PostID != 0 {
		props["post_id"] = c.PostID
	}
	if c.ThreadID != 0 {
		props["thread_id"] = c.ThreadID
	}
	p.analytics.Publish(subject, c.Kind, c.UserID, props)
}

const (
	AnalyticsStream  = "FORUM_ANALYTICS"
	analyticsSubject = "analytics.forum.>"
)

type streamManager interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	UpdateStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// EnsureStream creates the analytics stream or widens its subjects.
func EnsureStream(js streamManager) error {
	info, err := js.StreamInfo(AnalyticsStream)
	if err == nil {
		for _, s := range info.Config.Subjects {
			if s == analyticsSubject {
				return nil
			}
		}
		cfg := info.Config
		cfg.Subjects = append(cfg.Subjects, analyticsSubject)
		_, err = js.UpdateStream(&cfg)
		return err
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     AnalyticsStream,
		Subjects: []string{analyticsSubject},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}
