// Package realtime pushes completed scan results to websocket clients.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the envelope broadcast to every connected client.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub fans scan events out to websocket clients. Clients that cannot keep
// up are disconnected rather than allowed to block the loop.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// Latest event per symbol, replayed to clients on connect.
	mu     sync.RWMutex
	latest map[string][]byte

	done chan struct{}
}

// NewHub creates a hub; call Run in a goroutine before serving clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		latest:     make(map[string][]byte),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			log.Printf("Websocket client connected. Total: %d", len(h.clients))

			// Replay the latest known result per symbol so a fresh
			// dashboard starts populated.
			h.mu.RLock()
			for _, msg := range h.latest {
				select {
				case client.send <- msg:
				default:
				}
			}
			h.mu.RUnlock()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Websocket client disconnected. Total: %d", len(h.clients))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Client too slow, disconnect to keep the loop moving
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastScan publishes a scan event for a symbol, replacing the
// replayed snapshot for that symbol.
func (h *Hub) BroadcastScan(symbol string, payload interface{}) {
	data, err := json.Marshal(Event{Event: "scan_result", Payload: payload})
	if err != nil {
		log.Printf("Error marshalling broadcast message: %v", err)
		return
	}

	h.mu.Lock()
	h.latest[symbol] = data
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
	default:
		// Drop if broadcast buffer full
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the connection and attaches it to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		// Buffered so a slow reader does not stall the hub loop
		send: make(chan []byte, 64),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
