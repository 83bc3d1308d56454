package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wardenfs/warden/internal/infrastructure/monitoring"
	"github.com/wardenfs/warden/internal/logging"
	"github.com/wardenfs/warden/internal/service"
	"github.com/wardenfs/warden/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Handler manages WebSocket connections
type Handler struct {
	registry *service.Registry
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *service.Registry, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		registry: registry,
		log:      log,
		metrics:  metrics,
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	reqCtx := c.Request.Context()

	h.send(conn, map[string]interface{}{
		"type":    "system",
		"message": "Connected to Warden Filesystem Service",
	})

	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "execute":
			h.handleExecute(conn, msg, reqCtx)
		case "ping":
			h.send(conn, map[string]interface{}{"type": "pong"})
		default:
			h.sendError(conn, msg.ID, "unknown message type")
		}
	}
}

func (h *Handler) handleExecute(conn *websocket.Conn, msg types.WSMessage, reqCtx context.Context) {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}

	if msg.ToolID == "" {
		h.sendError(conn, id, "tool_id required")
		return
	}

	ctx, cancel := context.WithTimeout(reqCtx, time.Minute)
	defer cancel()

	var timer *monitoring.Timer
	if h.metrics != nil {
		timer = monitoring.NewTimer(h.metrics, "fs", msg.ToolID)
	}

	result, err := h.registry.Execute(ctx, msg.ToolID, msg.Params)
	if err != nil {
		if timer != nil {
			timer.Stop("error")
		}
		h.sendError(conn, id, err.Error())
		return
	}

	if timer != nil {
		status := "success"
		if !result.Success {
			status = "failure"
		}
		timer.Stop(status)
	}

	h.send(conn, map[string]interface{}{
		"type":      "result",
		"id":        id,
		"tool_id":   msg.ToolID,
		"result":    result,
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) send(conn *websocket.Conn, data interface{}) error {
	if h.metrics != nil {
		if m, ok := data.(map[string]interface{}); ok {
			if t, ok := m["type"].(string); ok {
				h.metrics.RecordWSMessage("out", t)
			}
		}
	}
	return conn.WriteJSON(data)
}

func (h *Handler) sendError(conn *websocket.Conn, id, msg string) error {
	return h.send(conn, map[string]interface{}{
		"type":      "error",
		"id":        id,
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}
