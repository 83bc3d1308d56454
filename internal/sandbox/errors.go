package sandbox

import "fmt"

// ConfigKind classifies allow-list construction failures.
type ConfigKind int

const (
	// EmptyAllowList means no directories were configured.
	EmptyAllowList ConfigKind = iota
	// NotADirectory means a configured entry does not exist or is not a directory.
	NotADirectory
)

// ConfigError is fatal at startup: the process must not serve requests
// without a valid, non-empty allow-list.
type ConfigError struct {
	Kind ConfigKind
	Dir  string
	Err  error
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case EmptyAllowList:
		return "sandbox: allow-list is empty"
	case NotADirectory:
		return fmt.Sprintf("sandbox: %q is not a directory", e.Dir)
	default:
		return "sandbox: invalid configuration"
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ResolutionKind classifies per-request resolution failures.
type ResolutionKind int

const (
	// InvalidInput means the candidate was empty or contained a NUL byte.
	InvalidInput ResolutionKind = iota
	// Unresolvable means the existing prefix could not be canonicalized,
	// e.g. permission denied or too many symlink traversals.
	Unresolvable
)

// ResolutionError is recoverable: it surfaces to the caller as a denial,
// never as a crash. The wrapped OS error stays internal.
type ResolutionError struct {
	Kind ResolutionKind
	Err  error
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case InvalidInput:
		return "sandbox: invalid path"
	default:
		return "sandbox: path cannot be resolved"
	}
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// DenialReason is the only information returned to a caller on denial.
type DenialReason int

const (
	ReasonNone DenialReason = iota
	ReasonOutsideAllowedRoots
	ReasonResolutionFailed
	ReasonInvalidInput
)

func (r DenialReason) String() string {
	switch r {
	case ReasonOutsideAllowedRoots:
		return "outside_allowed_roots"
	case ReasonResolutionFailed:
		return "resolution_failed"
	case ReasonInvalidInput:
		return "invalid_input"
	default:
		return "none"
	}
}
