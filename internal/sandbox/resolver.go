package sandbox

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLinkBudget bounds the total number of symlink traversals in a
// single resolution, guarding against symlink cycles.
const DefaultLinkBudget = 32

// Resolver turns an untrusted candidate path into a canonical, symlink-free
// absolute path. It is stateless apart from its configuration and safe for
// concurrent use.
type Resolver struct {
	base       string
	linkBudget int
}

var errTooManyLinks = errors.New("too many symbolic links")

// NewResolver creates a resolver. Relative candidates are joined against
// base, never against the process working directory. A linkBudget <= 0
// selects DefaultLinkBudget.
func NewResolver(base string, linkBudget int) *Resolver {
	if !filepath.IsAbs(base) {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}
	if linkBudget <= 0 {
		linkBudget = DefaultLinkBudget
	}
	return &Resolver{base: base, linkBudget: linkBudget}
}

// Resolve canonicalizes candidate. Symbolic links are dereferenced component
// by component, so ".." segments after a link apply to the link target, not
// the link name. Components past the first non-existent one are appended
// without symlink interpretation, so targets of future writes still resolve.
func (r *Resolver) Resolve(candidate string) (string, error) {
	if candidate == "" || strings.ContainsRune(candidate, 0) {
		return "", &ResolutionError{Kind: InvalidInput}
	}

	var queue []string
	if filepath.IsAbs(candidate) {
		queue = strings.Split(candidate, "/")
	} else {
		queue = append(strings.Split(r.base, "/"), strings.Split(candidate, "/")...)
	}

	resolved := "/"
	budget := r.linkBudget
	missing := false

	for len(queue) > 0 {
		comp := queue[0]
		queue = queue[1:]

		switch comp {
		case "", ".":
			continue
		case "..":
			// The resolved prefix is physical, so popping a component is
			// exact. At the filesystem root ".." is a no-op.
			resolved = parentOf(resolved)
			if missing {
				// Popping can land back on an existing directory, where
				// symlink interpretation has to resume or a link after a
				// phantom component would slip through unresolved.
				if _, err := os.Lstat(resolved); err == nil {
					missing = false
				}
			}
			continue
		}

		next := joinOne(resolved, comp)
		if missing {
			resolved = next
			continue
		}

		info, err := os.Lstat(next)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing = true
				resolved = next
				continue
			}
			return "", &ResolutionError{Kind: Unresolvable, Err: err}
		}

		if info.Mode()&os.ModeSymlink != 0 {
			budget--
			if budget < 0 {
				return "", &ResolutionError{Kind: Unresolvable, Err: errTooManyLinks}
			}
			target, err := os.Readlink(next)
			if err != nil {
				return "", &ResolutionError{Kind: Unresolvable, Err: err}
			}
			if filepath.IsAbs(target) {
				resolved = "/"
			}
			queue = append(strings.Split(target, "/"), queue...)
			continue
		}

		resolved = next
	}

	return resolved, nil
}

func joinOne(dir, comp string) string {
	if dir == "/" {
		return "/" + comp
	}
	return dir + "/" + comp
}

func parentOf(p string) string {
	if p == "/" {
		return "/"
	}
	idx := strings.LastIndexByte(p, '/')
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}
