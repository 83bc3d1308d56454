package sandbox

import (
	"os"
	"path/filepath"
	"strings"
)

// Root is an allowed directory in canonical form: absolute, symlink-free,
// no trailing separator.
type Root string

// RootSet holds the canonicalized allowed directories. It is immutable after
// construction and safe for unsynchronized concurrent reads.
type RootSet struct {
	roots []Root
}

// BuildRootSet canonicalizes the configured directories into a RootSet.
// Every entry must exist and be a directory at build time. Duplicates after
// canonicalization are collapsed, preserving first-seen order.
func BuildRootSet(rawDirs []string) (*RootSet, error) {
	if len(rawDirs) == 0 {
		return nil, &ConfigError{Kind: EmptyAllowList}
	}

	seen := make(map[Root]bool, len(rawDirs))
	roots := make([]Root, 0, len(rawDirs))

	for _, dir := range rawDirs {
		if strings.TrimSpace(dir) == "" {
			return nil, &ConfigError{Kind: NotADirectory, Dir: dir}
		}

		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, &ConfigError{Kind: NotADirectory, Dir: dir, Err: err}
		}

		canon, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, &ConfigError{Kind: NotADirectory, Dir: dir, Err: err}
		}

		info, err := os.Stat(canon)
		if err != nil {
			return nil, &ConfigError{Kind: NotADirectory, Dir: dir, Err: err}
		}
		if !info.IsDir() {
			return nil, &ConfigError{Kind: NotADirectory, Dir: dir}
		}

		root := Root(filepath.Clean(canon))
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}

	return &RootSet{roots: roots}, nil
}

// Roots returns a copy of the allowed roots in configuration order.
func (s *RootSet) Roots() []Root {
	out := make([]Root, len(s.roots))
	copy(out, s.roots)
	return out
}

// Primary returns the first configured root. Relative candidate paths are
// resolved against it.
func (s *RootSet) Primary() Root {
	return s.roots[0]
}

// Len returns the number of distinct roots.
func (s *RootSet) Len() int {
	return len(s.roots)
}
