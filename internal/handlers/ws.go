package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cronwatch-dev/cronwatch/internal/models"
	"github.com/cronwatch-dev/cronwatch/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendQueueSize  = 16
)

// wsClient funnels every outgoing frame, payloads and pings alike,
// through a single writer goroutine. gorilla/websocket allows only one
// concurrent writer per connection.
type wsClient struct {
	conn *websocket.Conn
	send chan interface{}
}

var (
	projectClients   = make(map[string]map[*wsClient]bool)
	projectClientsMu sync.RWMutex
)

func registerClient(projectID string, client *wsClient) {
	projectClientsMu.Lock()
	if projectClients[projectID] == nil {
		projectClients[projectID] = make(map[*wsClient]bool)
	}
	projectClients[projectID][client] = true
	projectClientsMu.Unlock()
}

func unregisterClient(projectID string, client *wsClient) {
	projectClientsMu.Lock()
	if clients, exists := projectClients[projectID]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(projectClients, projectID)
		}
	}
	projectClientsMu.Unlock()
}

// writePump is the connection's only writer. It exits on the first
// failed write; the read loop notices the closed connection and tears
// the client down.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(payload); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastMonitorFailure pushes a failure event to every websocket client
// subscribed to the monitor's project. Registered as a failure observer by
// main. Payloads are enqueued without blocking so a slow client can never
// stall the transition that raised the event; a client with a full queue
// misses the broadcast.
func BroadcastMonitorFailure(event models.FailureEvent, monitor models.Monitor) {
	projectID := strconv.FormatUint(uint64(monitor.ProjectID), 10)

	projectClientsMu.RLock()
	clients := make([]*wsClient, 0, len(projectClients[projectID]))
	for client := range projectClients[projectID] {
		clients = append(clients, client)
	}
	projectClientsMu.RUnlock()

	if len(clients) == 0 {
		return
	}

	payload := map[string]interface{}{
		"type":       "monitor_failure",
		"monitor_id": monitor.GUID,
		"monitor":    monitor.Name,
		"message":    event.Message,
		"project_id": projectID,
		"timestamp":  event.CreatedAt.Format(time.RFC3339),
	}

	for _, client := range clients {
		select {
		case client.send <- payload:
		default:
			log.Warn().Str("project", projectID).Msg("Dropping failure broadcast for slow websocket client")
		}
	}
}

func WebSocket(c *gin.Context) {
	projectID := c.Param("project_id")

	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	client := &wsClient{
		conn: conn,
		send: make(chan interface{}, sendQueueSize),
	}
	registerClient(projectID, client)

	defer func() {
		unregisterClient(projectID, client)
		conn.Close()
		log.Debug().Str("project", projectID).Msg("WebSocket connection closed")
	}()

	go client.writePump()

	client.send <- map[string]string{
		"type":       "connected",
		"message":    "WebSocket connection established",
		"project_id": projectID,
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("project", projectID).Msg("WebSocket error")
			}
			break
		}
	}
}
