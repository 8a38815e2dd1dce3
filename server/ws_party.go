package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"DeckFM/logger"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 45 * time.Second
)

// wsCommand is an inbound transport command from a feed client.
type wsCommand struct {
	Type string `json:"type"` // play, pause, skip, stop
}

// PartyFeedHandler upgrades the connection and attaches the client to the
// feed hub. The first message a client receives is the current status, so the
// UI never renders from nothing.
func (h *APIHandler) PartyFeedHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &Client{hub: h.hub, conn: conn, send: make(chan []byte, 64)}
	h.hub.register <- client

	if snapshot, err := json.Marshal(FeedMessage{
		Type:      "status",
		Data:      h.engine.Status(),
		Timestamp: time.Now().UnixMilli(),
	}); err == nil {
		client.send <- snapshot
	}

	go client.writePump()
	go h.readPump(client)
}

// readPump consumes transport commands until the connection drops.
func (h *APIHandler) readPump(client *Client) {
	defer func() {
		client.hub.unregister <- client
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("party feed read error", logger.ErrorField(err))
			}
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			logger.Warn("invalid party feed command", logger.ErrorField(err))
			continue
		}

		switch cmd.Type {
		case "play":
			if err := h.engine.Play(context.Background()); err != nil {
				logger.Warn("play command failed", logger.ErrorField(err))
			}
		case "pause":
			h.engine.Pause()
		case "skip":
			h.engine.Skip(context.Background(), time.Now())
		case "stop":
			h.engine.Stop()
		default:
			logger.Warn("unknown party feed command", logger.String("type", cmd.Type))
		}
	}
}

// writePump pushes hub messages and keepalive pings to the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
