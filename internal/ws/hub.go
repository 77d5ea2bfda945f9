package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Event represents a WebSocket message to be broadcast.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// restaurantEvent is an internal struct for routing events to one
// restaurant's subscribers.
type restaurantEvent struct {
	Restaurant string
	Event      Event
}

// Hub maintains the set of active clients and broadcasts bill and dashboard
// change events to them. Clients are grouped into rooms by restaurant name,
// so a waiter dashboard for bella-vista never sees another restaurant's
// traffic.
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *restaurantEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *restaurantEvent, 256),
	}
}

// BroadcastEvent queues an event for every client subscribed to the given
// restaurant. The payload is marshalled here so callers hand over plain
// structs; a payload that fails to marshal is dropped with a log line.
func (h *Hub) BroadcastEvent(restaurant, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshal %s payload: %v", eventType, err)
		return
	}
	h.broadcast <- &restaurantEvent{
		Restaurant: restaurant,
		Event:      Event{Type: eventType, Payload: data},
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.restaurant] == nil {
				h.rooms[client.restaurant] = make(map[*Client]bool)
			}
			h.rooms[client.restaurant][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.restaurant]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.restaurant)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Restaurant]

			message, err := json.Marshal(event.Event)
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
					delete(h.rooms[event.Restaurant], client)
					if len(h.rooms[event.Restaurant]) == 0 {
						delete(h.rooms, event.Restaurant)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}
