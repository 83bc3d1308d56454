// Package types defines the shared data structures used across the service
// layer: service and tool definitions, execution requests, and results.
package types
