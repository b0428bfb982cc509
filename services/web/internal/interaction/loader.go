package interaction

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/example/forum-platform/services/web/internal/remote"
)

// BatchRemote fetches interaction state for many posts in one call.
type BatchRemote interface {
	BatchInteractions(ctx context.Context, postIDs []int64) (map[int64]remote.Interaction, error)
}

// Loader coalesces FetchState calls for one actor into batched forum calls.
// Create one per request.
type Loader struct {
	engine *Engine
	batch  BatchRemote
	actor  string
	dl     *dataloader.Loader
}

func (e *Engine) NewLoader(b BatchRemote, actor string, wait time.Duration) *Loader {
	l := &Loader{engine: e, batch: b, actor: actor}
	l.dl = dataloader.NewBatchedLoader(l.load, dataloader.WithWait(wait))
	return l
}

// Load returns a thunk resolving to the state of subject.
func (l *Loader) Load(ctx context.Context, subject int64) func() (State, error) {
	thunk := l.dl.Load(ctx, dataloader.StringKey(strconv.FormatInt(subject, 10)))
	return func() (State, error) {
		v, err := thunk()
		if err != nil {
			return State{}, err
		}
		return v.(State), nil
	}
}

// LoadMany resolves all subjects, batched into as few calls as the wait allows.
// Subjects the forum does not know are left out of the result.
func (l *Loader) LoadMany(ctx context.Context, subjects []int64) (map[int64]State, error) {
	thunks := make([]func() (State, error), len(subjects))
	for i, id := range subjects {
		thunks[i] = l.Load(ctx, id)
	}
	out := make(map[int64]State, len(subjects))
	for i, th := range thunks {
		st, err := th()
		if remote.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[subjects[i]] = st
	}
	return out, nil
}

func (l *Loader) load(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
	results := make([]*dataloader.Result, len(keys))
	ids := make([]int64, 0, len(keys))
	stamps := make([]stamp, len(keys))
	for i, k := range keys {
		id, err := strconv.ParseInt(k.String(), 10, 64)
		if err != nil {
			results[i] = &dataloader.Result{Error: fmt.Errorf("interaction: bad key %q", k.String())}
			continue
		}
		ids = append(ids, id)
		stamps[i] = l.engine.stampOf(Key{id, l.actor})
	}

	got, err := l.batch.BatchInteractions(ctx, ids)
	for i, k := range keys {
		if results[i] != nil {
			continue
		}
		if err != nil {
			results[i] = &dataloader.Result{Error: err}
			continue
		}
		id, _ := strconv.ParseInt(k.String(), 10, 64)
		in, ok := got[id]
		if !ok {
			results[i] = &dataloader.Result{Error: &remote.Error{
				Kind: remote.KindNotFound, Op: "batch_interactions", Message: "post " + k.String() + " not in batch"}}
			continue
		}
		st := l.engine.applyFetched(Key{id, l.actor}, FromRemote(in), stamps[i])
		results[i] = &dataloader.Result{Data: st}
	}
	return results
}
