package refresh

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// SubjectRefresh carries triggers between web replicas.
	SubjectRefresh = "forum.refresh"
	// SubjectChanged is published by the forum service after every write.
	SubjectChanged = "forum.changed"
)

type publisher interface {
	Publish(subj string, data []byte) error
}

type refreshMsg struct {
	Origin  string `json:"origin"`
	Version uint64 `json:"version"`
}

// DefaultEchoWindow is how long a local write waits for its forum.changed echo.
const DefaultEchoWindow = 2 * time.Second

// Bridge extends a Bus across processes over NATS. Components that mutate
// should trigger through the Bridge so other replicas hear about it.
//
// A write made through this replica fires the bus right away, and the forum
// then reports the same write on forum.changed. Each Trigger therefore
// absorbs one forum.changed message arriving within the echo window.
type Bridge struct {
	bus    *Bus
	nc     *nats.Conn
	pub    publisher
	origin string
	log    *zap.Logger
	subs   []*nats.Subscription

	mu         sync.Mutex
	echoes     []time.Time // expiry of each expected echo, oldest first
	echoWindow time.Duration
	now        func() time.Time
}

// NewBridge returns a bridge; with a nil conn it only triggers locally.
func NewBridge(bus *Bus, nc *nats.Conn, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bridge{
		bus: bus, nc: nc, origin: uuid.NewString(), log: log,
		echoWindow: DefaultEchoWindow, now: time.Now,
	}
	if nc != nil {
		b.pub = nc
	}
	return b
}

func (b *Bridge) Origin() string { return b.origin }

// Start subscribes to remote change subjects.
func (b *Bridge) Start() error {
	if b.nc == nil {
		return nil
	}
	for _, subj := range []string{SubjectRefresh, SubjectChanged} {
		sub, err := b.nc.Subscribe(subj, b.handle)
		if err != nil {
			b.Stop()
			return err
		}
		b.subs = append(b.subs, sub)
	}
	b.log.Info("refresh bridge started", zap.String("origin", b.origin))
	return nil
}

func (b *Bridge) Stop() {
	var errs []error
	for _, s := range b.subs {
		errs = append(errs, s.Unsubscribe())
	}
	b.subs = nil
	if err := errors.Join(errs...); err != nil {
		b.log.Warn("refresh bridge unsubscribe", zap.Error(err))
	}
}

// Trigger reports a confirmed forum write: it fires the local bus, tells the
// other replicas and expects the forum's echo.
func (b *Bridge) Trigger() uint64 {
	return b.fire(true)
}

// Broadcast fires every replica's bus without a forum write behind it.
func (b *Bridge) Broadcast() uint64 {
	return b.fire(false)
}

func (b *Bridge) fire(write bool) uint64 {
	v := b.bus.Trigger()
	if b.pub == nil {
		return v
	}
	if write {
		b.mu.Lock()
		b.echoes = append(b.echoes, b.now().Add(b.echoWindow))
		b.mu.Unlock()
	}
	body, _ := json.Marshal(refreshMsg{Origin: b.origin, Version: v})
	if err := b.pub.Publish(SubjectRefresh, body); err != nil {
		b.log.Warn("refresh publish failed", zap.Error(err))
	}
	return v
}

// absorbEcho consumes one pending echo, if any is still within its window.
func (b *Bridge) absorbEcho() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	i := 0
	for i < len(b.echoes) && now.After(b.echoes[i]) {
		i++
	}
	b.echoes = b.echoes[i:]
	if len(b.echoes) == 0 {
		return false
	}
	b.echoes = b.echoes[1:]
	return true
}

func (b *Bridge) handle(m *nats.Msg) {
	switch m.Subject {
	case SubjectRefresh:
		var rm refreshMsg
		if err := json.Unmarshal(m.Data, &rm); err == nil && rm.Origin == b.origin {
			return
		}
	case SubjectChanged:
		if b.absorbEcho() {
			b.log.Debug("forum echo of local write absorbed")
			return
		}
	}
	v := b.bus.Trigger()
	b.log.Debug("remote refresh", zap.String("subject", m.Subject), zap.Uint64("version", v))
}
