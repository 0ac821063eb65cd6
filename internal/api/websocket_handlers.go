// internal/api/websocket_handlers.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/StandfmAI/internal/services"
)

// ProgressWebSocket streams tracker updates for :taskID until the task finishes
// or the client goes away.
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	taskID := c.Param("taskID")
	tracker, ok := h.Progress.GetTracker(taskID)
	if !ok {
		h.Response.NotFound(c, ErrorTaskNotFound, "タスクが見つかりません")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", map[string]interface{}{
			"task_id": taskID,
			"error":   err.Error(),
		})
		return
	}

	h.Sockets.register(taskID)
	defer h.Sockets.unregister(taskID)

	streamProgress(conn, tracker)
}

func streamProgress(conn *websocket.Conn, tracker *services.ProgressTracker) {
	defer conn.Close()

	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	// The read loop only services pongs and notices the client closing.
	closed := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if update.Status != services.StatusRunning {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, update.Status),
					time.Now().Add(wsWriteWait))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
