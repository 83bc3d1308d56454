// Package filesystem provides sandboxed file system operations.
//
// This package is organized into specialized modules:
//   - basic: Core file operations (read, write, edit)
//   - directory: Directory operations (mkdir, list, walk, tree)
//   - operations: File manipulation (move, copy)
//   - metadata: File metadata and statistics
//   - search: File search and filtering (glob, find, content)
//   - formats: Structured formats (JSON, YAML, TOML, CSV)
//   - archives: Archive operations (ZIP, TAR with compression)
//
// Every operation clears its path parameters through the sandbox gate and
// performs I/O on the canonical path from the verdict, never on the
// caller's raw string. Denials carry only a coarse reason, not the
// underlying OS error. Archive extraction authorizes each entry's target
// path individually so crafted entry names cannot escape the sandbox.
package filesystem
