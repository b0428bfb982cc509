package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/thread"
)

// renderTree prints one line per comment, indented by tree level. Leaf-only
// comments are marked; they can be read but not drilled into.
func renderTree(w io.Writer, forest []*thread.Node) {
	type item struct {
		n     *thread.Node
		level int
	}
	stack := make([]item, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, item{forest[i], 0})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		marker := ""
		if thread.IsLeafOnly(it.n.Depth) {
			marker = " [leaf]"
		}
		fmt.Fprintf(w, "%s#%d %s (+%d -%d)%s: %s\n", strings.Repeat("  ", it.level), it.n.ID, it.n.Author,
			it.n.LikesCount, it.n.DislikesCount, marker, firstLine(it.n.Content))
		for i := len(it.n.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.n.Children[i], it.level + 1})
		}
	}
}

func formatState(id int64, st interaction.State) string {
	flags := []string{st.Reaction.String()}
	if st.Saved {
		flags = append(flags, "saved")
	}
	return fmt.Sprintf("post %d: %s  +%d -%d", id, strings.Join(flags, ", "), st.LikesCount, st.DislikesCount)
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(s, "\n")
	return truncate(s, 80)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
