package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"BLZ 6472",
		"blz-6472_instructivo",
		"Lámpara Célica 4895",
		"GLW.3201 (copia)",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "normalizing twice must be stable for %q", in)
	}
}

func TestNormalizeNameFoldsAccents(t *testing.T) {
	assert.Equal(t, "LAMPARA4895", NormalizeName("lámpara 4895"))
	assert.Equal(t, "CELICA", NormalizeName("Célica"))
}

func TestParseEquivalentForms(t *testing.T) {
	forms := []string{"BLZ 6472", "BLZ6472", "BLZ-6472", "blz_6472", "Blz.6472"}
	for _, form := range forms {
		token, ok := Parse(form)
		require.True(t, ok, "form %q should parse", form)
		assert.Equal(t, "BLZ6472", token.Key, "form %q", form)
	}
}

func TestParseBareNumber(t *testing.T) {
	token, ok := Parse("6472")
	require.True(t, ok)
	assert.Equal(t, "6472", token.Key)
}

func TestParseTrailingText(t *testing.T) {
	token, ok := Parse("BLZ6472 instructivo tecnico")
	require.True(t, ok)
	assert.Equal(t, "BLZ6472", token.Key)
}

func TestParseRejections(t *testing.T) {
	rejected := []string{
		"INSTRUCTIVO", // no digits
		"ABCDE123",    // five-letter prefix
		"A123",        // single-letter prefix
		"BLZ12",       // too few digits
		"123456",      // too many digits
		"BLZ123456",   // too many digits behind a prefix
		"",
	}
	for _, in := range rejected {
		_, ok := Parse(in)
		assert.False(t, ok, "%q must not parse as a reference", in)
	}
}

func TestParseBlockCompoundLine(t *testing.T) {
	tokens := ParseBlock("GLW 3201 - BLZ 6472 - GLB 4895 - INSTRUCTIVO")
	require.Len(t, tokens, 3)
	assert.Equal(t, "GLW3201", tokens[0].Key)
	assert.Equal(t, "BLZ6472", tokens[1].Key)
	assert.Equal(t, "GLB4895", tokens[2].Key)
}

func TestParseBlockSeparatorsAndDedupe(t *testing.T) {
	tokens := ParseBlock("BLZ 6472, GLW3201; blz-6472 | GLW 3201\nBLZ6472\r\n\n845")
	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = tok.Key
	}
	assert.Equal(t, []string{"BLZ6472", "GLW3201", "845"}, keys)
}

func TestParseBlockKeepsFirstRawForm(t *testing.T) {
	tokens := ParseBlock("blz-6472\nBLZ 6472")
	require.Len(t, tokens, 1)
	assert.Equal(t, "blz-6472", tokens[0].Raw)
	assert.Equal(t, "BLZ6472", tokens[0].Key)
}

func TestParseBlockDashInsideTokenSurvives(t *testing.T) {
	tokens := ParseBlock("BLZ-6472")
	require.Len(t, tokens, 1)
	assert.Equal(t, "BLZ6472", tokens[0].Key)
}

func TestMatchesNameDigitBoundary(t *testing.T) {
	token, ok := Parse("BLZ6472")
	require.True(t, ok)

	assert.True(t, token.MatchesName(NormalizeName("BLZ6472")))
	assert.True(t, token.MatchesName(NormalizeName("BLZ 6472 - instructivo")))
	assert.True(t, token.MatchesName(NormalizeName("foto_blz-6472_v2")))

	// A longer digit run is a different reference, not a match.
	assert.False(t, token.MatchesName(NormalizeName("BLZ64729")))
	assert.False(t, token.MatchesName(NormalizeName("BLZ64721 catalogo")))
}

func TestMatchesNameCompoundName(t *testing.T) {
	// Normalization glues the separators away, so the key follows another
	// reference's digits directly; the lettered prefix is the boundary.
	names := []string{
		"GLW3201 - BLZ6472",
		"GLW 3201 - BLZ 6472 - GLB 4895",
		"glw3201_blz6472_instructivo",
	}
	for _, key := range []string{"GLW3201", "BLZ6472"} {
		token := Token{Raw: key, Key: key}
		for _, name := range names {
			assert.True(t, token.MatchesName(NormalizeName(name)), "%s in %q", key, name)
		}
	}

	glb, ok := Parse("GLB4895")
	require.True(t, ok)
	assert.True(t, glb.MatchesName(NormalizeName("GLW 3201 - BLZ 6472 - GLB 4895")))
	assert.False(t, glb.MatchesName(NormalizeName("GLW 3201 - BLZ 6472")))
}

func TestMatchesNameBareNumberBoundary(t *testing.T) {
	token, ok := Parse("845")
	require.True(t, ok)

	assert.True(t, token.MatchesName(NormalizeName("845.jpg")))
	assert.True(t, token.MatchesName(NormalizeName("lampara 845 dorada")))
	assert.False(t, token.MatchesName(NormalizeName("8457")))
	assert.False(t, token.MatchesName(NormalizeName("1845")))
}

func TestMatchesNameLaterOccurrence(t *testing.T) {
	// First occurrence fails the boundary check, a later one passes.
	token, ok := Parse("845")
	require.True(t, ok)
	assert.True(t, token.MatchesName(NormalizeName("8457 y 845")))
}

func TestMatchesNameAccentedEntry(t *testing.T) {
	token, ok := Parse("GLB4895")
	require.True(t, ok)
	assert.True(t, token.MatchesName(NormalizeName("Lámpara GLB-4895 célica")))
}
