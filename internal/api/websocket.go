// internal/api/websocket.go
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// ProgressSocketManager counts open progress sockets per task.
type ProgressSocketManager struct {
	connections map[string]int
	mutex       sync.RWMutex
}

func NewProgressSocketManager() *ProgressSocketManager {
	return &ProgressSocketManager{connections: make(map[string]int)}
}

func (m *ProgressSocketManager) register(taskID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.connections[taskID]++
}

func (m *ProgressSocketManager) unregister(taskID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.connections[taskID] <= 1 {
		delete(m.connections, taskID)
		return
	}
	m.connections[taskID]--
}

// GetStatus reports open sockets.
func (m *ProgressSocketManager) GetStatus() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tasks := make(map[string]int, len(m.connections))
	total := 0
	for taskID, n := range m.connections {
		tasks[taskID] = n
		total += n
	}
	return map[string]interface{}{
		"total_tasks":       len(tasks),
		"total_connections": total,
		"tasks":             tasks,
	}
}
