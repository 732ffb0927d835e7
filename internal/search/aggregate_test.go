package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refsearch/internal/reference"
)

func TestAggregatorGroupsAndNotFound(t *testing.T) {
	refs := reference.ParseBlock("BLZ6472\nGLW3201")
	require.Len(t, refs, 2)

	a := NewAggregator(refs)
	a.Add(FileMatch{Reference: refs[0], Class: ClassImage, Name: "blz6472.jpg", Path: "/a/blz6472.jpg"})
	a.Add(FileMatch{Reference: refs[0], Class: ClassFolder, Name: "BLZ 6472", Path: "/a/BLZ 6472"})

	groups := a.Groups()
	require.Len(t, groups, 2)

	assert.Equal(t, "BLZ6472", groups[0].Reference.Key)
	assert.Len(t, groups[0].Matches, 2)
	assert.Equal(t, 1, groups[0].Counts[ClassImage])
	assert.Equal(t, 1, groups[0].Counts[ClassFolder])
	assert.False(t, groups[0].NotFound)

	assert.Equal(t, "GLW3201", groups[1].Reference.Key)
	assert.Empty(t, groups[1].Matches)
	assert.True(t, groups[1].NotFound)

	assert.Equal(t, []string{"GLW3201"}, NotFoundKeys(groups))
}

func TestAggregatorDedupesByReferenceAndPath(t *testing.T) {
	refs := reference.ParseBlock("BLZ6472")
	a := NewAggregator(refs)
	m := FileMatch{Reference: refs[0], Class: ClassImage, Name: "x.jpg", Path: "/a/x.jpg"}
	a.Add(m)
	a.Add(m)

	groups := a.Groups()
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Matches, 1)
	assert.Equal(t, 1, groups[0].Counts[ClassImage])
}

func TestAggregatorIgnoresUnknownReference(t *testing.T) {
	refs := reference.ParseBlock("BLZ6472")
	a := NewAggregator(refs)
	stranger := reference.Token{Raw: "GLW3201", Key: "GLW3201"}
	a.Add(FileMatch{Reference: stranger, Class: ClassImage, Name: "x.jpg", Path: "/a/x.jpg"})

	groups := a.Groups()
	require.Len(t, groups, 1)
	assert.True(t, groups[0].NotFound)
}
