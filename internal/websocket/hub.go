// Package websocket streams event bus traffic to gateway clients.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"go-wanandroid/internal/event"
)

// stickyReader is implemented by buses that retain sticky events.
type stickyReader interface {
	Sticky(t event.Type) (event.Event, bool)
}

// Hub fans bus events out to connected clients. A client whose send buffer
// is full is disconnected rather than slowing down the others.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	bus        event.Bus
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		bus:        bus,
	}
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer close(h.done)

	defer func() {
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			h.replaySession(client)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "type", e.Type, "error", err)
				continue
			}
			for client := range h.clients {
				if !client.wants(e.Type) {
					continue
				}
				h.sendOrDrop(client, message)
			}
		}
	}
}

// replaySession sends the retained login or logout event so a new client
// learns the current session state without waiting for a change.
func (h *Hub) replaySession(client *Client) {
	reader, ok := h.bus.(stickyReader)
	if !ok {
		return
	}

	for _, t := range []event.Type{event.TypeLogin, event.TypeLogout} {
		e, found := reader.Sticky(t)
		if !found || !client.wants(t) {
			continue
		}
		message, err := json.Marshal(e)
		if err != nil {
			continue
		}
		h.sendOrDrop(client, message)
	}
}

// attach registers client unless the hub has stopped.
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) sendOrDrop(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		slog.Warn("websocket client too slow, disconnecting", "client", client.id)
		close(client.send)
		delete(h.clients, client)
	}
}
