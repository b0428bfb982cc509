package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLeafOnly(t *testing.T) {
	cases := []struct {
		depth int
		want  bool
	}{
		{-1, false},
		{0, false},
		{1, false},
		{2, false},
		{3, true},
		{4, true},
		{100, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsLeafOnly(tc.depth), "depth %d", tc.depth)
	}
}

func TestIsLeafOnly_DeepChildrenStillInTree(t *testing.T) {
	records := []Record{
		{ID: 1, Depth: 1},
		{ID: 2, ParentID: ptr(1), Depth: 2},
		{ID: 3, ParentID: ptr(2), Depth: 3},
		{ID: 4, ParentID: ptr(3), Depth: 4, Content: "deep reply"},
	}
	forest := BuildTree(records)

	d2 := forest[0].Children[0]
	d3 := d2.Children[0]
	assert.False(t, IsLeafOnly(d2.Depth))
	assert.True(t, IsLeafOnly(d3.Depth))
	require.Len(t, d3.Children, 1)
	assert.Equal(t, "deep reply", d3.Children[0].Content)
}
