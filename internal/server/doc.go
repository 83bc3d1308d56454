// Package server wires the service together: configuration to root set,
// root set to gate, gate to providers, providers to registry, registry to
// HTTP and WebSocket transports.
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Build the root set (fails fast on a bad allow-list)
//  3. Construct the gate and register providers
//  4. Setup routes and middleware (recovery, metrics, CORS, rate limit)
//  5. Serve until signalled, then drain and exit
package server
