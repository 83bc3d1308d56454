package sandbox

import (
	"runtime"
	"strings"
)

// Checker decides whether a canonical path is equal to or a descendant of
// an allowed root. Comparison is by full path components, never by raw
// string prefix.
type Checker struct {
	// CaseInsensitive folds component comparison. The default follows the
	// conventional filesystem semantics of the platform; it is a single
	// switch, not a per-call heuristic.
	CaseInsensitive bool
}

// DefaultCaseInsensitive reports the conventional case sensitivity of the
// platform's filesystems.
func DefaultCaseInsensitive() bool {
	return runtime.GOOS == "darwin" || runtime.GOOS == "windows"
}

// Contains returns the matching root for path, preferring the most specific
// root when roots nest. The second return is false when no root matches,
// which is the normal "denied" outcome, not an error.
func (c Checker) Contains(path string, roots *RootSet) (Root, bool) {
	pathComps := splitComponents(path)

	var best Root
	bestLen := -1
	for _, root := range roots.roots {
		rootComps := splitComponents(string(root))
		if len(rootComps) > len(pathComps) || len(rootComps) <= bestLen {
			continue
		}
		matched := true
		for i := range rootComps {
			if !c.sameComponent(rootComps[i], pathComps[i]) {
				matched = false
				break
			}
		}
		if matched {
			best = root
			bestLen = len(rootComps)
		}
	}

	if bestLen < 0 {
		return "", false
	}
	return best, true
}

func (c Checker) sameComponent(a, b string) bool {
	if c.CaseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func splitComponents(p string) []string {
	comps := make([]string, 0, 8)
	for _, c := range strings.Split(p, "/") {
		if c != "" {
			comps = append(comps, c)
		}
	}
	return comps
}
