// Package service implements the registry that maps tool IDs to provider
// implementations and dispatches execution requests.
package service
