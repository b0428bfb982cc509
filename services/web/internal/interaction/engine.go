package interaction

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/forum-platform/services/web/internal/remote"
)

// Remote is the part of the forum client the engine needs.
type Remote interface {
	Interaction(ctx context.Context, postID int64) (remote.Interaction, error)
	SetSignal(ctx context.Context, postID int64, sig remote.Signal, on bool) error
}

// Notifier is told after a mutation is confirmed by the forum.
type Notifier interface {
	Trigger() uint64
}

// Observer receives toggle outcomes; the metrics package implements it.
type Observer interface {
	Toggled(intent Intent, outcome string)
	StaleDropped()
}

// Toggle outcomes passed to Observer.
const (
	OutcomeOK              = "ok"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeInFlight        = "in_flight"
	OutcomeFailed          = "failed"
	OutcomeRolledBack      = "rolled_back"
	OutcomeDirty           = "dirty"
)

// Key identifies one entry: a post as seen by one user.
type Key struct {
	Subject int64
	Actor   string
}

type entry struct {
	state   State
	gen     uint64
	busy    bool
	touched time.Time
}

type nopObserver struct{}

func (nopObserver) Toggled(Intent, string) {}
func (nopObserver) StaleDropped()          {}

type nopNotifier struct{}

func (nopNotifier) Trigger() uint64 { return 0 }

// Option configures an Engine.
type Option func(*Engine)

func WithObserver(o Observer) Option { return func(e *Engine) { e.obs = o } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithCompensationTimeout bounds the rollback call made after a partial failure.
func WithCompensationTimeout(d time.Duration) Option {
	return func(e *Engine) { e.compTimeout = d }
}

// Engine owns interaction state for every (post, user) pair it has seen.
// Remote calls are made without holding the lock. Each entry carries a
// generation and every removal bumps the engine epoch; a response whose entry
// was replaced or removed meanwhile is dropped.
type Engine struct {
	remote      Remote
	notify      Notifier
	obs         Observer
	log         *zap.Logger
	now         func() time.Time
	compTimeout time.Duration

	mu      sync.Mutex
	entries map[Key]*entry
	gen     uint64
	epoch   uint64
}

// stamp is what a fetch saw before going to the forum.
type stamp struct {
	gen   uint64
	epoch uint64
}

func NewEngine(r Remote, n Notifier, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if n == nil {
		n = nopNotifier{}
	}
	e := &Engine{
		remote:      r,
		notify:      n,
		obs:         nopObserver{},
		log:         log,
		now:         time.Now,
		compTimeout: 5 * time.Second,
		entries:     make(map[Key]*entry),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// State returns the cached state for key.
func (e *Engine) State(subject int64, actor string) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.entries[Key{subject, actor}]
	if !ok {
		return State{}, false
	}
	return ent.state, true
}

// Len reports the number of cached entries.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// FetchState reads the current state from the forum and caches it. While a
// toggle is in flight the optimistic state is returned instead. If the entry
// was discarded while the read was out, the result is returned but not cached.
func (e *Engine) FetchState(ctx context.Context, subject int64, actor string) (State, error) {
	key := Key{subject, actor}
	start := e.stampOf(key)

	in, err := e.remote.Interaction(ctx, subject)
	if err != nil {
		return State{}, err
	}
	return e.applyFetched(key, FromRemote(in), start), nil
}

// ToggleLike switches the like: neutral to liked, liked to neutral, and
// disliked to liked.
func (e *Engine) ToggleLike(ctx context.Context, subject int64, actor string) (State, error) {
	return e.toggle(ctx, Key{subject, actor}, IntentLike)
}

// ToggleDislike mirrors ToggleLike.
func (e *Engine) ToggleDislike(ctx context.Context, subject int64, actor string) (State, error) {
	return e.toggle(ctx, Key{subject, actor}, IntentDislike)
}

// ToggleSave flips the saved flag. Reactions are left alone.
func (e *Engine) ToggleSave(ctx context.Context, subject int64, actor string) (State, error) {
	return e.toggle(ctx, Key{subject, actor}, IntentSave)
}

// Discard drops the entry for key. A toggle still in flight for it will
// have its result ignored.
func (e *Engine) Discard(subject int64, actor string) {
	e.mu.Lock()
	if _, ok := e.entries[Key{subject, actor}]; ok {
		delete(e.entries, Key{subject, actor})
		e.epoch++
	}
	e.mu.Unlock()
}

// Sweep discards entries untouched for longer than idle and returns how many
// went. Busy entries are kept.
func (e *Engine) Sweep(idle time.Duration) int {
	cutoff := e.now().Add(-idle)
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for k, ent := range e.entries {
		if !ent.busy && ent.touched.Before(cutoff) {
			delete(e.entries, k)
			n++
		}
	}
	if n > 0 {
		e.epoch++
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (e *Engine) RunSweeper(ctx context.Context, interval, idle time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := e.Sweep(idle); n > 0 {
				e.log.Debug("interaction entries swept", zap.Int("count", n))
			}
		}
	}
}

func (e *Engine) toggle(ctx context.Context, key Key, intent Intent) (State, error) {
	if strings.TrimSpace(key.Actor) == "" {
		e.obs.Toggled(intent, OutcomeUnauthenticated)
		return State{}, ErrUnauthenticated
	}

	ent, base, err := e.begin(ctx, key, intent)
	if err != nil {
		return base, err
	}

	plan := Transition(base, intent)
	e.mu.Lock()
	ent.state = plan.Project(base)
	gen := ent.gen
	e.mu.Unlock()

	confirmed, execErr := e.execute(ctx, key.Subject, plan)

	final := plan.Commit(base)
	if execErr != nil {
		final = settle(base, confirmed)
	}

	e.mu.Lock()
	cur := e.entries[key]
	if cur != ent || cur.gen != gen {
		e.mu.Unlock()
		e.obs.StaleDropped()
		e.log.Debug("stale interaction response dropped",
			zap.Int64("subject", key.Subject), zap.String("intent", intent.String()))
		if execErr == nil {
			e.notify.Trigger()
		}
		st, _ := e.State(key.Subject, key.Actor)
		return st, nil
	}
	ent.state = final
	ent.busy = false
	ent.touched = e.now()
	e.mu.Unlock()

	if execErr == nil {
		e.notify.Trigger()
	}

	e.obs.Toggled(intent, outcomeOf(execErr))
	if execErr != nil {
		e.log.Warn("interaction toggle failed",
			zap.Int64("subject", key.Subject),
			zap.String("intent", intent.String()),
			zap.Bool("stale", final.Stale),
			zap.Error(execErr))
	}
	return final, execErr
}

// begin marks the entry busy and returns its confirmed state, fetching it
// first when missing or stale.
func (e *Engine) begin(ctx context.Context, key Key, intent Intent) (*entry, State, error) {
	for fetched := false; ; fetched = true {
		e.mu.Lock()
		ent := e.entries[key]
		if ent != nil && ent.busy {
			st := ent.state
			e.mu.Unlock()
			e.obs.Toggled(intent, OutcomeInFlight)
			return nil, st, ErrInFlight
		}
		if ent != nil && (fetched || !ent.state.Stale) {
			ent.busy = true
			ent.touched = e.now()
			st := ent.state
			e.mu.Unlock()
			return ent, st, nil
		}
		e.mu.Unlock()

		if _, err := e.FetchState(ctx, key.Subject, key.Actor); err != nil {
			e.obs.Toggled(intent, OutcomeFailed)
			return nil, State{}, err
		}
		if err := ctx.Err(); err != nil {
			return nil, State{}, err
		}
	}
}

// execute issues the plan's calls in order. If a later call fails, the
// confirmed ones are compensated in reverse. It returns the ops that remain
// applied on the forum.
func (e *Engine) execute(ctx context.Context, subject int64, plan Plan) ([]Op, error) {
	for i, op := range plan.Ops {
		sig, on := op.Signal()
		err := e.remote.SetSignal(ctx, subject, sig, on)
		if err == nil {
			continue
		}
		if i == 0 {
			return nil, err
		}

		applied := append([]Op(nil), plan.Ops[:i]...)
		perr := &PartialError{Intent: plan.Intent, Confirmed: applied[len(applied)-1], Failed: op, Err: err, RolledBack: true}

		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.compTimeout)
		defer cancel()
		for j := len(applied) - 1; j >= 0; j-- {
			inv := applied[j].Inverse()
			sig, on := inv.Signal()
			if cerr := e.remote.SetSignal(cctx, subject, sig, on); cerr != nil {
				perr.RolledBack = false
				perr.CompensateErr = cerr
				return applied, perr
			}
			applied = applied[:j]
		}
		return nil, perr
	}
	return plan.Ops, nil
}

func (e *Engine) stampOf(key Key) stamp {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := stamp{epoch: e.epoch}
	if ent, ok := e.entries[key]; ok {
		s.gen = ent.gen
	}
	return s
}

// applyFetched stores a fetched state unless the entry changed since start,
// was removed, or has a toggle in flight. It returns what is now cached, or
// st itself when the entry is gone.
func (e *Engine) applyFetched(key Key, st State, start stamp) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.entries[key]
	if ok && (cur.busy || cur.gen != start.gen) {
		e.obs.StaleDropped()
		return cur.state
	}
	if !ok && (start.gen != 0 || start.epoch != e.epoch) {
		e.obs.StaleDropped()
		e.log.Debug("fetch for discarded interaction entry dropped", zap.Int64("subject", key.Subject))
		return st
	}
	e.gen++
	e.entries[key] = &entry{state: st, gen: e.gen, touched: e.now()}
	return st
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if pe, ok := err.(*PartialError); ok {
		if pe.RolledBack {
			return OutcomeRolledBack
		}
		return OutcomeDirty
	}
	return OutcomeFailed
}
