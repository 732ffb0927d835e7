package search

import (
	"path/filepath"
	"sort"
	"strings"
)

// OptimizeRoots deduplicates and prunes a set of user-chosen search roots
// so that no root in the result is an ancestor or descendant of another.
// Re-walking a subtree already covered by a shorter root has outsized cost
// on network shares, so descendants of a kept root are dropped.
//
// Paths are cleaned and absolutized; comparison is case-insensitive and
// separator-normalized so mixed-case duplicates on case-insensitive
// filesystems collapse. When resolveSymlinks is set, symlinked roots are
// resolved before comparison (off by default: automounted NAS shares can
// alias distinct exports onto one device path).
//
// The relative order of surviving roots follows the input order.
func OptimizeRoots(paths []string, resolveSymlinks bool) []string {
	type candidate struct {
		path string // canonical absolute path
		cmp  string // normalized comparison form
		pos  int    // original input position
	}

	candidates := make([]candidate, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for pos, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(filepath.Clean(p))
		if err != nil {
			abs = filepath.Clean(p)
		}
		if resolveSymlinks {
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				abs = resolved
			}
		}
		cmp := comparablePath(abs)
		if _, dup := seen[cmp]; dup {
			continue
		}
		seen[cmp] = struct{}{}
		candidates = append(candidates, candidate{path: abs, cmp: cmp, pos: pos})
	}

	// Shortest paths first so ancestors are kept before their descendants
	// are considered.
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].cmp) < len(candidates[j].cmp)
	})

	var kept []candidate
	for _, c := range candidates {
		covered := false
		for _, k := range kept {
			if c.cmp == k.cmp || strings.HasPrefix(c.cmp, k.cmp+"/") || k.cmp == "/" {
				covered = true
				break
			}
		}
		if !covered {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].pos < kept[j].pos })

	out := make([]string, len(kept))
	for i, k := range kept {
		out[i] = k.path
	}
	return out
}

// comparablePath normalizes a path for ancestor/duplicate comparison:
// forward slashes, lowercase, no trailing separator (except the root).
func comparablePath(p string) string {
	cmp := strings.ToLower(filepath.ToSlash(p))
	for len(cmp) > 1 && strings.HasSuffix(cmp, "/") {
		cmp = cmp[:len(cmp)-1]
	}
	return cmp
}
