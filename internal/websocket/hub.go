package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"clarity-gateway/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans background warnings out to the browser tabs of a client.
// Connections are keyed by the anonymous client id, not the user id,
// so warnings reach clients that never log in.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
	redisClient *redis.Client
	cancelFuncs map[string]context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		connections: make(map[string][]*websocket.Conn),
		redisClient: redisClient,
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if _, err := uuid.Parse(clientID); err != nil {
		http.Error(w, "Invalid client id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(clientID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(clientID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(clientID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[clientID] = append(h.connections[clientID], conn)

	// Start pub/sub subscription if this is the first connection for this client
	if len(h.connections[clientID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[clientID] = cancel
		go h.subscribeToPubSub(ctx, clientID)
	}

	log.Printf("WebSocket connected: client %s (total: %d)", clientID, len(h.connections[clientID]))
}

func (h *Hub) unregisterConnection(clientID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[clientID]
	for i, c := range conns {
		if c == conn {
			h.connections[clientID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[clientID]) == 0 {
		delete(h.connections, clientID)
		if cancel, ok := h.cancelFuncs[clientID]; ok {
			cancel()
			delete(h.cancelFuncs, clientID)
		}
	}

	log.Printf("WebSocket disconnected: client %s", clientID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, clientID string) {
	channel := "warnings:" + clientID
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(clientID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(clientID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[clientID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// NotifyWarning publishes a warning event on the client's channel. The
// event reaches every open tab via the pub/sub subscription, including
// tabs connected to other gateway instances.
func (h *Hub) NotifyWarning(clientID, code, message string) {
	event := models.WarningEvent{Type: "warning", Code: code, Message: message}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := h.redisClient.Publish(context.Background(), "warnings:"+clientID, data).Err(); err != nil {
		log.Printf("Failed to publish warning for client %s: %v", clientID, err)
	}
}
