package server

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fetchkit/fetchd/internal/model"
)

// Hub fans job status updates out to connected websocket clients.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

// NewHub creates an idle Hub; call Start before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Start runs the hub loop in its own goroutine.
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case client := <-h.register:
				h.mu.Lock()
				h.clients[client] = true
				h.mu.Unlock()
			case client := <-h.unregister:
				h.mu.Lock()
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					client.Close()
				}
				h.mu.Unlock()
			case message := <-h.broadcast:
				h.mu.Lock()
				for client := range h.clients {
					if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
						client.Close()
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			}
		}
	}()
}

// BroadcastJob pushes one job's current state to every client.
func (h *Hub) BroadcastJob(job model.Job) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": "job_update",
		"job":  job,
	})
	if err != nil {
		log.Printf("hub: marshal job update: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		// Slow consumers must not stall a job worker.
	}
}

// Register adds a client connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.register <- conn
}

// Unregister removes a client connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.unregister <- conn
}
