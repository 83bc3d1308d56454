// Command warden runs the sandboxed filesystem service.
//
// Configuration comes from the environment; ALLOWED_DIR (a single path or
// a JSON array of paths) is required. See internal/infrastructure/config
// for the full set of variables.
package main
