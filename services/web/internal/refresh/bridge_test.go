package refresh

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subjects []string
	bodies   [][]byte
	err      error
}

func (f *fakePublisher) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	f.bodies = append(f.bodies, data)
	return f.err
}

func TestBridgeTriggerPublishes(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, nil, nil)
	pub := &fakePublisher{}
	br.pub = pub

	v := br.Trigger()
	assert.Equal(t, uint64(1), v)
	require.Equal(t, []string{SubjectRefresh}, pub.subjects)

	var m refreshMsg
	require.NoError(t, json.Unmarshal(pub.bodies[0], &m))
	assert.Equal(t, br.Origin(), m.Origin)
	assert.Equal(t, uint64(1), m.Version)
}

func TestBridgePublishErrorStillTriggersLocally(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, nil, nil)
	br.pub = &fakePublisher{err: errors.New("nats down")}

	assert.Equal(t, uint64(1), br.Trigger())
	assert.Equal(t, uint64(1), bus.Version())
}

func TestBridgeIgnoresOwnEcho(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, nil, nil)

	own, _ := json.Marshal(refreshMsg{Origin: br.Origin(), Version: 3})
	br.handle(&nats.Msg{Subject: SubjectRefresh, Data: own})
	assert.Zero(t, bus.Version())

	other, _ := json.Marshal(refreshMsg{Origin: "replica-b", Version: 3})
	br.handle(&nats.Msg{Subject: SubjectRefresh, Data: other})
	assert.Equal(t, uint64(1), bus.Version())
}

func TestBridgeForumChangesTrigger(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, nil, nil)
	s := bus.Subscribe()
	defer s.Close()

	br.handle(&nats.Msg{Subject: SubjectChanged, Data: []byte(`{"kind":"comment_created","post_id":4}`)})
	assert.Equal(t, uint64(1), recv(t, s))
}

func TestBridgeWithoutConn(t *testing.T) {
	br := NewBridge(NewBus(), nil, nil)
	require.NoError(t, br.Start())
	br.Stop()
	assert.Equal(t, uint64(1), br.Trigger())
}

func TestBridgeAbsorbsEchoOfLocalWrite(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bus := NewBus()
	br := NewBridge(bus, nil, nil)
	br.pub = &fakePublisher{}
	br.now = func() time.Time { return now }
	changed := &nats.Msg{Subject: SubjectChanged, Data: []byte(`{"kind":"reaction_changed","post_id":7}`)}

	br.Trigger()
	br.handle(changed)
	assert.Equal(t, uint64(1), bus.Version(), "the echo does not fire the bus again")

	br.handle(changed)
	assert.Equal(t, uint64(2), bus.Version(), "a second change came from elsewhere")

	br.Trigger()
	now = now.Add(DefaultEchoWindow + time.Second)
	br.handle(changed)
	assert.Equal(t, uint64(4), bus.Version(), "an echo past its window is not awaited")
}

func TestBridgeBroadcastExpectsNoEcho(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, nil, nil)
	pub := &fakePublisher{}
	br.pub = pub

	assert.Equal(t, uint64(1), br.Broadcast())
	require.Equal(t, []string{SubjectRefresh}, pub.subjects)
	br.handle(&nats.Msg{Subject: SubjectChanged})
	assert.Equal(t, uint64(2), bus.Version())
}

func TestBridgeWithoutPublisherAwaitsNoEcho(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, nil, nil)

	br.Trigger()
	br.handle(&nats.Msg{Subject: SubjectChanged})
	assert.Equal(t, uint64(2), bus.Version())
}
