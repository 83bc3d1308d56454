// Package http provides HTTP handlers and routing for the REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Services: /services, /services/execute
//   - Metrics: /metrics (Prometheus exposition)
//
// Handlers speak JSON and return tool results verbatim; execution errors
// surface as HTTP 500, tool-level failures as a Result with Success=false.
package http
