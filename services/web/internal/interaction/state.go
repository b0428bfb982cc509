// Package interaction keeps a user's like/dislike/save state for a post
// consistent with the forum service across toggles and failures.
package interaction

import (
	"encoding/json"

	"github.com/example/forum-platform/services/web/internal/remote"
)

// Reaction is the like/dislike half of the state. Liked and disliked at
// once cannot be expressed.
type Reaction uint8

const (
	Neutral Reaction = iota
	Liked
	Disliked
)

func (r Reaction) String() string {
	switch r {
	case Liked:
		return "liked"
	case Disliked:
		return "disliked"
	default:
		return "neutral"
	}
}

// State is the caller's view of one post.
type State struct {
	Reaction      Reaction
	Saved         bool
	LikesCount    int
	DislikesCount int
	// Pending is set while a toggle is in flight; the fields then show the
	// expected outcome rather than a confirmed one.
	Pending bool
	// Stale marks local state that may disagree with the forum; the next
	// toggle or fetch re-reads it first.
	Stale bool
}

func (s State) Liked() bool    { return s.Reaction == Liked }
func (s State) Disliked() bool { return s.Reaction == Disliked }

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Liked         bool `json:"liked"`
		Disliked      bool `json:"disliked"`
		Saved         bool `json:"saved"`
		LikesCount    int  `json:"likes_count"`
		DislikesCount int  `json:"dislikes_count"`
		Pending       bool `json:"pending,omitempty"`
		Stale         bool `json:"stale,omitempty"`
	}{s.Liked(), s.Disliked(), s.Saved, s.LikesCount, s.DislikesCount, s.Pending, s.Stale})
}

// FromRemote converts the forum's flags. The forum stores like and dislike
// independently; if both are set the like wins and the state is marked stale.
func FromRemote(in remote.Interaction) State {
	st := State{
		Saved:         in.Saved,
		LikesCount:    max(in.LikesCount, 0),
		DislikesCount: max(in.DislikesCount, 0),
	}
	switch {
	case in.Liked && in.Disliked:
		st.Reaction = Liked
		st.Stale = true
	case in.Liked:
		st.Reaction = Liked
	case in.Disliked:
		st.Reaction = Disliked
	}
	return st
}
