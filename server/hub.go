package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"DeckFM/logger"
)

// FeedMessage is the envelope for every message on the party feed.
type FeedMessage struct {
	Type      string      `json:"type"` // status, event
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Client is one websocket subscriber on the party feed.
type Client struct {
	hub  *PartyHub
	conn *websocket.Conn
	send chan []byte
}

// PartyHub fans the engine's status snapshots and events out to every
// connected websocket client. There is a single party, so no room keying.
type PartyHub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu   sync.RWMutex
	done chan struct{}
}

// NewPartyHub creates the feed hub.
func NewPartyHub() *PartyHub {
	return &PartyHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub main loop.
func (h *PartyHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToClients(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop shuts the hub down and closes every client send channel.
func (h *PartyHub) Stop() {
	close(h.done)
}

// Broadcast queues a raw message for every client. Drops the message when the
// hub's buffer is full rather than blocking the caller.
func (h *PartyHub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// BroadcastFeed wraps data in a FeedMessage envelope and broadcasts it.
func (h *PartyHub) BroadcastFeed(msgType string, data interface{}) {
	msg := FeedMessage{Type: msgType, Data: data, Timestamp: time.Now().UnixMilli()}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to marshal feed message", logger.ErrorField(err))
		return
	}
	h.Broadcast(payload)
}

// ClientCount reports the number of connected subscribers.
func (h *PartyHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *PartyHub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	logger.Info("party feed client connected", logger.Int("clients", len(h.clients)))
}

func (h *PartyHub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	logger.Info("party feed client disconnected", logger.Int("clients", len(h.clients)))
}

func (h *PartyHub) broadcastToClients(msg []byte) {
	h.mu.RLock()
	clientList := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	for _, client := range clientList {
		select {
		case client.send <- msg:
		default:
			// Send buffer full, drop the slow client.
			h.unregisterClient(client)
		}
	}
}

func (h *PartyHub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]bool)
}
