// Package sandbox implements the path containment engine that confines all
// filesystem access to a configured allow-list of root directories.
//
// The engine is organized into four pieces:
//   - RootSet: canonicalized allowed directories, built once at startup
//   - Resolver: turns an untrusted candidate path into a canonical,
//     symlink-free absolute path
//   - Checker: decides descendant-or-equal containment by path components
//   - Gate: the public Authorize entry point combining the three
//
// Resolution dereferences symbolic links component by component, so a
// symlink anywhere inside an allowed root that points outside it is caught.
// Naive prefix checks on the raw string are never used: /allowed must not
// match /allowed-other, and /allowed/link/passwd must be denied when link
// points at /etc.
//
// The containment guarantee holds at check time only. There is an inherent
// TOCTOU gap between Authorize returning a canonical path and the caller
// opening it; the filesystem may change in between (a symlink swapped in, a
// file replaced). Callers must use the returned canonical path for the
// subsequent I/O, never the original candidate string.
//
// Verdicts carry only a coarse DenialReason. Raw OS error text and the
// layout of paths outside the sandbox are never echoed back to callers.
package sandbox
