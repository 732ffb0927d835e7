package imagehash

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refsearch/internal/search"
)

// buildImageTree writes a candidate tree: one rendering of patternA, one of
// patternB, one undecodable image and one non-image file.
func buildImageTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "products"), 0o755))

	require.NoError(t, imaging.Save(blockImage(patternA, 64), filepath.Join(root, "products", "copy.png")))
	require.NoError(t, imaging.Save(blockImage(patternB, 64), filepath.Join(root, "other.png")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "corrupt.jpg"), []byte("not an image"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	return root
}

func TestMatcherFindsScaledCopy(t *testing.T) {
	root := buildImageTree(t)
	m := &Matcher{Threshold: 8}

	// Reference rendered at a different size than the stored copy.
	matches, err := m.Search(context.Background(), blockImage(patternA, 256), []string{root}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1, "only the same pattern is within threshold")

	match := matches[0]
	assert.Equal(t, filepath.Join(root, "products", "copy.png"), match.Path)
	assert.LessOrEqual(t, match.Distance, 8)
	assert.GreaterOrEqual(t, match.SimilarityPercent, SimilarityPercent(8))
}

func TestMatcherSkipsCorruptCandidates(t *testing.T) {
	root := buildImageTree(t)
	m := &Matcher{Threshold: BitLength}

	matches, err := m.Search(context.Background(), blockImage(patternA, 64), []string{root}, nil)
	require.NoError(t, err, "undecodable candidates are skipped, not fatal")

	for _, match := range matches {
		assert.NotContains(t, match.Path, "corrupt.jpg")
		assert.NotContains(t, match.Path, "notes.txt")
	}
	assert.Len(t, matches, 2)
}

func TestMatcherRanksByDistance(t *testing.T) {
	root := buildImageTree(t)
	m := &Matcher{Threshold: BitLength}

	matches, err := m.Search(context.Background(), blockImage(patternA, 64), []string{root}, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Contains(t, matches[0].Path, "copy.png", "closest candidate first")
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Distance, matches[i].Distance)
	}
}

func TestMatcherReportsProgress(t *testing.T) {
	root := buildImageTree(t)
	m := &Matcher{Threshold: 8}

	var events int
	_, err := m.Search(context.Background(), blockImage(patternA, 64), []string{root},
		func(ev search.ProgressEvent) { events++ })
	require.NoError(t, err)
	assert.Positive(t, events)
}

func TestMatcherCancellation(t *testing.T) {
	root := buildImageTree(t)
	m := &Matcher{Threshold: 8}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matches, err := m.Search(ctx, blockImage(patternA, 64), []string{root}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	// Partial results are valid; here likely empty.
	assert.LessOrEqual(t, len(matches), 1)
}

func TestMatcherNoRoots(t *testing.T) {
	m := &Matcher{Threshold: 8}
	_, err := m.Search(context.Background(), blockImage(patternA, 64), nil, nil)
	assert.ErrorIs(t, err, search.ErrNoRoots)
}
