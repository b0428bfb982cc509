package thread

// LeafDepth is the first depth rendered without drill-down or a reply invitation.
const LeafDepth = 3

// IsLeafOnly reports whether a node at depth is leaf-only. Its children, if
// any, are still rendered; they just are not expandable from here.
func IsLeafOnly(depth int) bool {
	return depth >= LeafDepth
}
