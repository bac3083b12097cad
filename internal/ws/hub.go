package ws

import (
	"encoding/json"
	"sync"
)

// Event is a dashboard refresh notification broadcast to a branch's clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// branchEvent routes an event to one branch's room.
type branchEvent struct {
	BranchID int64
	Event    Event
}

// Hub maintains the active dashboard connections per branch and broadcasts
// refresh events to them. Delivery is fire-and-forget: a slow client is
// dropped, never waited on.
type Hub struct {
	rooms map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *branchEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *branchEvent, 256),
	}
}

// Run starts the hub's main loop. Call as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.branchID] == nil {
				h.rooms[client.branchID] = make(map[*Client]bool)
			}
			h.rooms[client.branchID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.branchID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.branchID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.BranchID]

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
					delete(h.rooms[event.BranchID], client)
					if len(h.rooms[event.BranchID]) == 0 {
						delete(h.rooms, event.BranchID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToBranch queues an event for all clients watching a branch.
// Non-blocking; an overflowing broadcast queue drops the event.
func (h *Hub) BroadcastToBranch(branchID int64, event Event) {
	select {
	case h.broadcast <- &branchEvent{BranchID: branchID, Event: event}:
	default:
	}
}

// Notify implements the services' Notifier: a typed refresh event with no
// payload.
func (h *Hub) Notify(branchID int64, event string) {
	h.BroadcastToBranch(branchID, Event{Type: event})
}
