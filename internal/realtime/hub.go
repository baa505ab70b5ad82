// Package realtime keeps websocket connections per project board and pushes
// events to them.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/taskboard-dev/taskboard/internal/cascade"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

const (
	EventConnected = "connected"
	EventRefresh   = "refresh"
	EventDeleted   = "deleted"
)

type Event struct {
	Type      string           `json:"type"`
	Message   string           `json:"message"`
	ProjectID string           `json:"project_id"`
	Removed   map[string]int64 `json:"removed,omitempty"`
}

type Hub struct {
	writeMu  sync.Mutex // one writer per connection at a time
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

func (h *Hub) BroadcastRefresh(projectID uuid.UUID) {
	h.Broadcast(projectID, Event{Type: EventRefresh, Message: "Board data updated"})
}

// BroadcastDeleted tells viewers the project is gone and drops them.
func (h *Hub) BroadcastDeleted(projectID uuid.UUID, removed map[string]int64) {
	h.Broadcast(projectID, Event{Type: EventDeleted, Message: "Project deleted", Removed: removed})

	h.mu.Lock()
	clients := h.clients[projectID]
	delete(h.clients, projectID)
	h.mu.Unlock()

	for conn := range clients {
		conn.Close()
	}
}

func (h *Hub) Broadcast(projectID uuid.UUID, event Event) {
	event.ProjectID = projectID.String()

	h.mu.RLock()
	clients, exists := h.clients[projectID]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// writes happen outside the lock
	snapshot := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		snapshot = append(snapshot, conn)
	}
	h.mu.RUnlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	for _, conn := range snapshot {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			zap.L().Warn("failed to set write deadline for broadcast", zap.Error(err))
			continue
		}

		if err := conn.WriteJSON(event); err != nil {
			zap.L().Warn("failed to broadcast to client", zap.String("project_id", event.ProjectID), zap.Error(err))
			h.unregister(projectID, conn)
			conn.Close()
		}
	}
}

// Clients returns how many connections watch the project.
func (h *Hub) Clients(projectID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

func (h *Hub) register(projectID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[projectID] == nil {
		h.clients[projectID] = make(map[*websocket.Conn]bool)
	}
	h.clients[projectID][conn] = true
}

func (h *Hub) unregister(projectID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[projectID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, projectID)
		}
	}
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// the welcome message goes out before registration so it never races a broadcast
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		conn.Close()
		return
	}

	err = conn.WriteJSON(Event{Type: EventConnected, Message: "WebSocket connection established", ProjectID: projectID.String()})
	if err != nil {
		zap.L().Warn("failed to send welcome message", zap.Error(err))
		conn.Close()
		return
	}

	h.register(projectID, conn)

	defer func() {
		h.unregister(projectID, conn)
		conn.Close()
		zap.L().Debug("websocket connection closed", zap.String("project_id", projectID.String()))
	}()

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket error", zap.String("project_id", projectID.String()), zap.Error(err))
			}
			return
		}
	}
}

// DeletionObserver closes the board of a deleted project once the
// deletion has committed.
func (h *Hub) DeletionObserver() cascade.Observer {
	return func(_ context.Context, summary *cascade.Summary) error {
		if summary.Root.Type == graph.Project {
			h.BroadcastDeleted(summary.Root.ID, summary.RemovedCounts())
		}
		return nil
	}
}
