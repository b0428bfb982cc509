package interaction

import "github.com/example/forum-platform/services/web/internal/remote"

// Intent is what the user asked for.
type Intent uint8

const (
	IntentLike Intent = iota
	IntentDislike
	IntentSave
)

func (i Intent) String() string {
	switch i {
	case IntentLike:
		return "like"
	case IntentDislike:
		return "dislike"
	default:
		return "save"
	}
}

// Op is one remote call.
type Op uint8

const (
	AddLike Op = iota
	RemoveLike
	AddDislike
	RemoveDislike
	AddSave
	RemoveSave
)

func (o Op) String() string {
	switch o {
	case AddLike:
		return "add_like"
	case RemoveLike:
		return "remove_like"
	case AddDislike:
		return "add_dislike"
	case RemoveDislike:
		return "remove_dislike"
	case AddSave:
		return "add_save"
	default:
		return "remove_save"
	}
}

// Inverse returns the op that undoes o.
func (o Op) Inverse() Op {
	switch o {
	case AddLike:
		return RemoveLike
	case RemoveLike:
		return AddLike
	case AddDislike:
		return RemoveDislike
	case RemoveDislike:
		return AddDislike
	case AddSave:
		return RemoveSave
	default:
		return AddSave
	}
}

// Signal maps o to the forum call that performs it.
func (o Op) Signal() (remote.Signal, bool) {
	switch o {
	case AddLike:
		return remote.Like, true
	case RemoveLike:
		return remote.Like, false
	case AddDislike:
		return remote.Dislike, true
	case RemoveDislike:
		return remote.Dislike, false
	case AddSave:
		return remote.Save, true
	default:
		return remote.Save, false
	}
}

// applyCounts adds the count effect of a confirmed op. Counts never drop below zero.
func (o Op) applyCounts(s State) State {
	switch o {
	case AddLike:
		s.LikesCount++
	case RemoveLike:
		s.LikesCount = max(s.LikesCount-1, 0)
	case AddDislike:
		s.DislikesCount++
	case RemoveDislike:
		s.DislikesCount = max(s.DislikesCount-1, 0)
	}
	return s
}

// Plan is the result of a transition: the target flags and the calls that
// reach them, in the order they must be issued.
type Plan struct {
	Intent   Intent
	Reaction Reaction
	Saved    bool
	Ops      []Op
}

// Transition is the pure state transition function.
//
// Switching from one reaction to the other adds the new signal before
// removing the old one.
func Transition(cur State, intent Intent) Plan {
	p := Plan{Intent: intent, Reaction: cur.Reaction, Saved: cur.Saved}
	switch intent {
	case IntentLike:
		switch cur.Reaction {
		case Neutral:
			p.Reaction, p.Ops = Liked, []Op{AddLike}
		case Liked:
			p.Reaction, p.Ops = Neutral, []Op{RemoveLike}
		case Disliked:
			p.Reaction, p.Ops = Liked, []Op{AddLike, RemoveDislike}
		}
	case IntentDislike:
		switch cur.Reaction {
		case Neutral:
			p.Reaction, p.Ops = Disliked, []Op{AddDislike}
		case Disliked:
			p.Reaction, p.Ops = Neutral, []Op{RemoveDislike}
		case Liked:
			p.Reaction, p.Ops = Disliked, []Op{AddDislike, RemoveLike}
		}
	case IntentSave:
		if cur.Saved {
			p.Saved, p.Ops = false, []Op{RemoveSave}
		} else {
			p.Saved, p.Ops = true, []Op{AddSave}
		}
	}
	return p
}

// Commit returns base after every op in the plan was confirmed.
func (p Plan) Commit(base State) State {
	out := base
	for _, op := range p.Ops {
		out = op.applyCounts(out)
	}
	out.Reaction = p.Reaction
	out.Saved = p.Saved
	out.Pending = false
	out.Stale = false
	return out
}

// Project is the optimistic view shown while the plan is in flight.
func (p Plan) Project(base State) State {
	out := p.Commit(base)
	out.Pending = true
	return out
}

// settle returns base with only the confirmed ops' counts applied. The flags
// keep their base values; a non-empty confirmed list marks the state stale.
func settle(base State, confirmed []Op) State {
	out := base
	for _, op := range confirmed {
		out = op.applyCounts(out)
	}
	out.Pending = false
	if len(confirmed) > 0 {
		out.Stale = true
	}
	return out
}
