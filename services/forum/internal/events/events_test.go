package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/example/forum-platform/internal/platform/analytics"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return f.err
}

func TestEmit_ContentChangeIsBroadcast(t *testing.T) {
	fc := &fakeConn{}
	p := New(nil, analytics.New(nil, nil), nil)
	p.nc = fc

	p.Emit(Change{Kind: KindCommentCreated, UserID: "u1", PostID: 7, ThreadID: 3})

	if len(fc.subjects) != 1 || fc.subjects[0] != SubjectChanged {
		t.Fatalf("expected one %s publish, got %v", SubjectChanged, fc.subjects)
	}
	var got Change
	if err := json.Unmarshal(fc.payloads[0], &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.Kind != KindCommentCreated || got.PostID != 7 || got.ThreadID != 3 || got.At.IsZero() {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestEmit_UserEventsStayPrivate(t *testing.T) {
	fc := &fakeConn{}
	p := New(nil, analytics.New(nil, nil), nil)
	p.nc = fc

	p.Emit(Change{Kind: KindUserLoggedIn, UserID: "u1"})

	if len(fc.subjects) != 0 {
		t.Fatalf("login must not trigger a refresh, got %v", fc.subjects)
	}
}

func TestEmit_PublishErrorIsSwallowed(t *testing.T) {
	p := New(nil, nil, nil)
	p.nc = &fakeConn{err: errors.New("down")}
	p.Emit(Change{Kind: KindReactionChanged, PostID: 1})
}

func TestNew_NilConnDisablesBroadcast(t *testing.T) {
	p := New(nil, nil, nil)
	if p.nc != nil {
		t.Fatal("nil *nats.Conn must not be stored as a non-nil interface")
	}
	p.Emit(Change{Kind: KindThreadCreated, PostID: 1})
}

type fakeJS struct {
	info    *nats.StreamInfo
	infoErr error
	added   *nats.StreamConfig
	updated *nats.StreamConfig
}

func (f *fakeJS) StreamInfo(string, ...nats.JSOpt) (*nats.StreamInfo, error) { return f.info, f.infoErr }

func (f *fakeJS) AddStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.added = cfg
	return &nats.StreamInfo{Config: *cfg}, nil
}

func (f *fakeJS) UpdateStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.updated = cfg
	return &nats.StreamInfo{Config: *cfg}, nil
}

func TestEnsureStream(t *testing.T) {
	js := &fakeJS{infoErr: nats.ErrStreamNotFound}
	if err := EnsureStream(js); err != nil {
		t.Fatalf("create: %v", err)
	}
	if js.added == nil || js.added.Name != AnalyticsStream {
		t.Fatalf("expected stream to be created, got %+v", js.added)
	}

	js = &fakeJS{info: &nats.StreamInfo{Config: nats.StreamConfig{Name: AnalyticsStream, Subjects: []string{"analytics.other"}}}}
	if err := EnsureStream(js); err != nil {
		t.Fatalf("update: %v", err)
	}
	if js.updated == nil || len(js.updated.Subjects) != 2 {
		t.Fatalf("expected subjects widened, got %+v", js.updated)
	}

	js = &fakeJS{info: &nats.StreamInfo{Config: nats.StreamConfig{Subjects: []string{analyticsSubject}}}}
	if err := EnsureStream(js); err != nil || js.updated != nil || js.added != nil {
		t.Fatalf("expected no-op, got err=%v updated=%v added=%v", err, js.updated, js.added)
	}

	js = &fakeJS{infoErr: errors.New("timeout")}
	if err := EnsureStream(js); err == nil {
		t.Fatal("expected lookup error to surface")
	}
}
