package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// driverEvent routes a payload to the watchers of one driver's day.
type driverEvent struct {
	DriverID uuid.UUID
	Payload  interface{}
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Clients are grouped into rooms by driver ID; an area manager watching a
// driver's reconciliation screen joins that driver's room.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *driverEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *driverEvent, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.driverID] == nil {
				h.rooms[client.driverID] = make(map[*Client]bool)
			}
			h.rooms[client.driverID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.driverID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.driverID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.DriverID]

			message, err := json.Marshal(event.Payload)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.DriverID], client)
					if len(h.rooms[event.DriverID]) == 0 {
						delete(h.rooms, event.DriverID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToDriver sends a payload to all clients watching the driver.
// This is the public API for handlers to broadcast events.
func (h *Hub) BroadcastToDriver(driverID uuid.UUID, payload interface{}) {
	h.broadcast <- &driverEvent{
		DriverID: driverID,
		Payload:  payload,
	}
}
