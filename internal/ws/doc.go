// Package ws provides WebSocket handling for tool execution.
//
// Message Types (Client → Server):
//   - execute: Run a tool (tool_id, params, optional id for correlation)
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection greeting
//   - result: Tool execution result, echoing the request id
//   - pong: Keep-alive reply
//   - error: Error occurred
//
// Requests without an id are assigned a generated UUID so results can
// always be correlated.
package ws
