// Package thread turns the flat comment list of a thread into a forest and
// classifies nodes for rendering.
package thread

// Node is a Record plus its replies in input order. Children is never nil.
type Node struct {
	Record
	Children []*Node `json:"children"`
}

// BuildTree links records into a forest in O(n).
//
// A record is a root when its parent is null, refers to an id that is not in
// the set, or lies on a parent cycle (a self-parent included). Records below
// a cycle stay attached to it. Every input record appears exactly once in the
// output and children keep input order.
func BuildTree(records []Record) []*Node {
	index := make(map[int64]*Node, len(records))
	nodes := make([]*Node, len(records))
	for i, r := range records {
		n := &Node{Record: r, Children: []*Node{}}
		nodes[i] = n
		index[r.ID] = n
	}

	cyclic := findCycles(records, index)

	roots := make([]*Node, 0)
	for _, n := range nodes {
		if n.ParentID == nil || cyclic[n.ID] {
			roots = append(roots, n)
			continue
		}
		parent, ok := index[*n.ParentID]
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots
}

type mark uint8

const (
	unvisited mark = iota
	onPath
	done
)

// findCycles returns the ids of records that sit on a parent cycle. Each
// record is walked at most once, so the pass stays linear.
func findCycles(records []Record, index map[int64]*Node) map[int64]bool {
	marks := make(map[int64]mark, len(records))
	cyclic := make(map[int64]bool)
	var path []int64

	for _, r := range records {
		if marks[r.ID] != unvisited {
			continue
		}
		path = path[:0]
		id := r.ID
		for {
			if marks[id] == done {
				break
			}
			if marks[id] == onPath {
				// id closes a loop: everything from its first occurrence on the path is cyclic.
				for i := len(path) - 1; i >= 0; i-- {
					cyclic[path[i]] = true
					if path[i] == id {
						break
					}
				}
				break
			}
			marks[id] = onPath
			path = append(path, id)
			n := index[id]
			if n.ParentID == nil {
				break
			}
			if _, ok := index[*n.ParentID]; !ok {
				break
			}
			id = *n.ParentID
		}
		for _, p := range path {
			marks[p] = done
		}
	}
	return cyclic
}

// Count returns the number of nodes in forest, descendants included.
func Count(forest []*Node) int {
	total := 0
	stack := append([]*Node(nil), forest...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		total++
		stack = append(stack, n.Children...)
	}
	return total
}

// Walk visits every node depth-first in child order. Returning false from fn
// skips that node's children.
func Walk(forest []*Node, fn func(n *Node) bool) {
	for _, n := range forest {
		if fn(n) {
			Walk(n.Children, fn)
		}
	}
}
