package sandbox

import "errors"

// Mode labels the intended filesystem operation for an authorization.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Verdict is the outcome of an authorization. It is produced fresh per
// request and never cached: targets may change between checks.
type Verdict struct {
	// Allowed reports whether the operation may proceed.
	Allowed bool
	// Path is the canonical path the caller must use for the subsequent
	// I/O. Re-using the original candidate would reopen the gap between
	// what was checked and what is operated on.
	Path string
	// Root is the matched allow-list root when Allowed.
	Root Root
	// Reason is set when denied.
	Reason DenialReason
}

// Config holds gate tuning knobs.
type Config struct {
	// LinkBudget bounds symlink traversals per resolution; <= 0 selects
	// DefaultLinkBudget.
	LinkBudget int
	// CaseInsensitive folds path component comparison.
	CaseInsensitive bool
}

// DefaultConfig returns the platform-appropriate gate configuration.
func DefaultConfig() Config {
	return Config{
		LinkBudget:      DefaultLinkBudget,
		CaseInsensitive: DefaultCaseInsensitive(),
	}
}

// Gate is the public authorization entry point. It is stateless beyond the
// immutable RootSet and safe for concurrent use without locking.
type Gate struct {
	roots    *RootSet
	resolver *Resolver
	checker  Checker
}

// NewGate builds a gate over an already-constructed RootSet.
func NewGate(roots *RootSet, cfg Config) *Gate {
	return &Gate{
		roots:    roots,
		resolver: NewResolver(string(roots.Primary()), cfg.LinkBudget),
		checker:  Checker{CaseInsensitive: cfg.CaseInsensitive},
	}
}

// Roots exposes the allow-list for reporting.
func (g *Gate) Roots() []Root { return g.roots.Roots() }

// Authorize resolves candidate and checks containment. It performs only
// read-only metadata queries and is idempotent with respect to the
// filesystem. For a write target whose final component does not exist yet,
// the returned Path is the canonical parent plus the final component name.
func (g *Gate) Authorize(candidate string, mode Mode) Verdict {
	canon, err := g.resolver.Resolve(candidate)
	if err != nil {
		return Verdict{Reason: denialFor(err)}
	}

	root, ok := g.checker.Contains(canon, g.roots)
	if !ok {
		return Verdict{Reason: ReasonOutsideAllowedRoots}
	}

	return Verdict{Allowed: true, Path: canon, Root: root}
}

func denialFor(err error) DenialReason {
	var resErr *ResolutionError
	if errors.As(err, &resErr) && resErr.Kind == InvalidInput {
		return ReasonInvalidInput
	}
	return ReasonResolutionFailed
}
