package reference

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Token is one parsed product reference. Key is the canonical uppercase,
// separator-stripped form used for matching; Raw keeps the first-seen input
// form for display.
type Token struct {
	Raw string `json:"raw"`
	Key string `json:"key"`
}

// grammar matches a reference at the start of a normalized candidate:
// an optional run of 2-4 letters followed by a run of 3-5 digits. The
// digit run must not continue (6+ digits is not a reference), and any
// trailing free text is discarded.
var grammar = regexp.MustCompile(`^([A-Z]{2,4})?([0-9]{3,5})(?:[^0-9].*)?$`)

// candidateSplit separates compound lines into candidates: commas,
// semicolons and pipes always split; dash runs split only when adjacent
// to whitespace, so "BLZ-6472" stays one candidate while
// "GLW 3201 - BLZ 6472" splits in two.
var candidateSplit = regexp.MustCompile(`\s*[,;|]\s*|\s+[-–—]+\s*|\s*[-–—]+\s+`)

// foldAccents removes diacritics so accented filenames on the NAS compare
// equal to plain ASCII references.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeName returns the canonical matching form of an entry name:
// accent-folded, uppercased, with everything but letters and digits
// removed. Applying it twice returns the same string.
func NormalizeName(name string) string {
	folded := strings.ToUpper(foldAccents(name))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse tests a single candidate substring against the reference grammar.
// Returns the token and true when the candidate starts with a valid
// reference; candidates that fail the grammar are not an error, just not
// references.
func Parse(candidate string) (Token, bool) {
	stripped := NormalizeName(candidate)
	m := grammar.FindStringSubmatch(stripped)
	if m == nil {
		return Token{}, false
	}
	return Token{Raw: strings.TrimSpace(candidate), Key: m[1] + m[2]}, true
}

// ParseBlock parses a freeform block of pasted text into reference tokens.
// Lines are split into candidates (see candidateSplit), each candidate is
// tested against the grammar, and duplicates collapse keeping the
// first-seen raw form. Insertion order is preserved.
func ParseBlock(text string) []Token {
	var tokens []Token
	seen := make(map[string]struct{})

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		for _, candidate := range candidateSplit.Split(line, -1) {
			token, ok := Parse(candidate)
			if !ok {
				continue
			}
			if _, dup := seen[token.Key]; dup {
				continue
			}
			seen[token.Key] = struct{}{}
			tokens = append(tokens, token)
		}
	}

	return tokens
}

// MatchesName reports whether the token's key occurs in the normalized
// entry name as a contiguous substring whose digit run is not extended by
// an adjacent digit. The boundary applies only where the key itself is
// digits: a digit before a lettered prefix is fine (compound names like
// GLW3201BLZ6472 match BLZ6472), but BLZ6472 never matches inside
// BLZ64729, and a bare 845 never matches inside 1845.
func (t Token) MatchesName(normalizedName string) bool {
	key := t.Key
	if key == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(normalizedName[i:], key)
		if j < 0 {
			return false
		}
		j += i
		end := j + len(key)
		beforeOK := j == 0 || !isASCIIDigit(key[0]) || !isASCIIDigit(normalizedName[j-1])
		afterOK := end == len(normalizedName) || !isASCIIDigit(key[len(key)-1]) || !isASCIIDigit(normalizedName[end])
		if beforeOK && afterOK {
			return true
		}
		i = j + 1
	}
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
