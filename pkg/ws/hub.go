package ws

import (
	"context"
	"encoding/json"

	"chatrelay/pkg/logger"
)

// DefaultRoom is the single shared room all clients join.
const DefaultRoom = "chat-room"

// Event names on the realtime channel.
const (
	EventJoin       = "join-chat"
	EventNewMessage = "new-message"
)

// Frame is the wire format of the realtime channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinReq struct {
	client *Client
	room   string
}

type outbound struct {
	room    string
	payload []byte
}

// Hub is the process-wide connection and room registry. It is created at
// startup and torn down at shutdown; all membership mutation happens on the
// Run goroutine. Delivery is best-effort: no retry, no persistence of
// undelivered events, no acknowledgement. A client joining after a
// broadcast never receives that event.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	joins      chan joinReq
	broadcasts chan outbound

	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joins:      make(chan joinReq),
		broadcasts: make(chan outbound, 64),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

// Run owns the registries until ctx is canceled. On shutdown every client
// send channel is closed, which terminates the write pumps.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*Client]struct{})
			h.rooms = make(map[string]map[*Client]struct{})
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			logger.Info("ws_connected", "remote", c.remote)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				for _, members := range h.rooms {
					delete(members, c)
				}
				close(c.send)
				logger.Info("ws_disconnected", "remote", c.remote)
			}

		case j := <-h.joins:
			if _, ok := h.clients[j.client]; !ok {
				continue
			}
			members := h.rooms[j.room]
			if members == nil {
				members = make(map[*Client]struct{})
				h.rooms[j.room] = members
			}
			members[j.client] = struct{}{}
			logger.Info("ws_joined_room", "room", j.room, "remote", j.client.remote)

		case out := <-h.broadcasts:
			for c := range h.rooms[out.room] {
				select {
				case c.send <- out.payload:
				default:
					// Slow consumer; drop it rather than block the hub.
					delete(h.clients, c)
					for _, members := range h.rooms {
						delete(members, c)
					}
					close(c.send)
				}
			}
		}
	}
}

// Broadcast delivers an event to every subscriber currently joined to room.
// Fire-and-forget: marshal failures are logged and the event is dropped.
func (h *Hub) Broadcast(room, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Error("ws_marshal_failed", "event", event, "error", err)
		return
	}
	payload, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		logger.Error("ws_marshal_failed", "event", event, "error", err)
		return
	}
	h.broadcasts <- outbound{room: room, payload: payload}
}
