package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type   string                 `json:"type"`
	ID     string                 `json:"id,omitempty"`
	ToolID string                 `json:"tool_id,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}
