// Package view assembles what the browser shows: annotated comment trees
// with interaction state, and the saved-threads sidebar.
package view

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/remote"
	"github.com/example/forum-platform/services/web/internal/thread"
)

// Remote is what page assembly reads from the forum.
type Remote interface {
	Thread(ctx context.Context, id int64) (remote.ThreadDetail, error)
	interaction.BatchRemote
}

// TreeObserver is told the shape of every assembled tree.
type TreeObserver interface {
	TreeBuilt(nodes, roots int)
}

// Node is a comment ready for rendering.
type Node struct {
	thread.Record
	LeafOnly bool               `json:"leaf_only"`
	State    *interaction.State `json:"state,omitempty"`
	Children []*Node            `json:"children"`
}

type ThreadPage struct {
	Thread       remote.Post        `json:"thread"`
	State        *interaction.State `json:"state,omitempty"`
	Comments     []*Node            `json:"comments"`
	CommentCount int                `json:"comment_count"`
}

type Assembler struct {
	remote Remote
	engine *interaction.Engine
	obs    TreeObserver
	wait   time.Duration
	log    *zap.Logger
}

func NewAssembler(r Remote, e *interaction.Engine, obs TreeObserver, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{remote: r, engine: e, obs: obs, wait: 2 * time.Millisecond, log: log}
}

// ThreadPage fetches a thread with its comments and, for a signed-in actor,
// the actor's state on the thread and on every comment.
func (a *Assembler) ThreadPage(ctx context.Context, id int64, actor string) (ThreadPage, error) {
	var (
		detail  remote.ThreadDetail
		loader  *interaction.Loader
		ownSt   interaction.State
		signed  = actor != ""
		g, gctx = errgroup.WithContext(ctx)
	)
	if signed {
		loader = a.engine.NewLoader(a.remote, actor, a.wait)
	}

	g.Go(func() error {
		d, err := a.remote.Thread(gctx, id)
		if err != nil {
			return err
		}
		detail = d
		return nil
	})
	if signed {
		g.Go(func() error {
			st, err := loader.Load(gctx, id)()
			if err != nil {
				return err
			}
			ownSt = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ThreadPage{}, err
	}

	forest := thread.BuildTree(detail.Comments)
	page := ThreadPage{
		Thread:       detail.Thread,
		Comments:     Annotate(forest),
		CommentCount: len(detail.Comments),
	}
	if a.obs != nil {
		a.obs.TreeBuilt(page.CommentCount, len(forest))
	}
	if !signed {
		return page, nil
	}

	page.State = &ownSt
	ids := make([]int64, 0, len(detail.Comments))
	for _, r := range detail.Comments {
		ids = append(ids, r.ID)
	}
	states, err := loader.LoadMany(ctx, ids)
	if err != nil {
		// Tree without state is still worth showing.
		a.log.Warn("comment states unavailable", zap.Int64("thread_id", id), zap.Error(err))
		return page, nil
	}
	walk(page.Comments, func(n *Node) {
		if st, ok := states[n.ID]; ok {
			n.State = &st
		}
	})
	return page, nil
}

// Annotate copies a forest into render nodes, marking leaf-only depth.
func Annotate(forest []*thread.Node) []*Node {
	out := make([]*Node, len(forest))
	type pair struct {
		src *thread.Node
		dst *Node
	}
	stack := make([]pair, 0, len(forest))
	for i, n := range forest {
		out[i] = &Node{Record: n.Record}
		stack = append(stack, pair{n, out[i]})
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p.dst.LeafOnly = thread.IsLeafOnly(p.src.Depth)
		p.dst.Children = make([]*Node, len(p.src.Children))
		for i, c := range p.src.Children {
			p.dst.Children[i] = &Node{Record: c.Record}
			stack = append(stack, pair{c, p.dst.Children[i]})
		}
	}
	return out
}

func walk(forest []*Node, fn func(*Node)) {
	stack := append([]*Node(nil), forest...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		stack = append(stack, n.Children...)
	}
}
