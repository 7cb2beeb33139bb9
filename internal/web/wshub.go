package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"cybercase/internal/access"
	"cybercase/internal/constants"
	"cybercase/internal/logger"

	"github.com/gorilla/websocket"
)

// newUpgrader creates a WebSocket upgrader that validates Origin against allowed origins.
// If allowedOrigins is empty, only same-origin requests are accepted.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // same-origin (no Origin header)
			}
			if len(allowed) > 0 {
				return allowed[origin]
			}
			return true
		},
	}
}

// knownChannels are the channels clients may subscribe to.
var knownChannels = map[string]bool{
	constants.ChannelDashboard: true,
	constants.ChannelCases:     true,
}

type WSClient struct {
	hub      *WSHub
	conn     *websocket.Conn
	send     chan []byte
	username string
	channels map[string]bool
	mu       sync.RWMutex
}

// WSHub fans pushed updates out to subscribed clients. The most recent
// message per channel is replayed to new subscribers.
type WSHub struct {
	clients        map[*WSClient]bool
	broadcast      chan WSMessage
	register       chan *WSClient
	unregister     chan *WSClient
	subscribe      chan subscription
	last           map[string][]byte
	done           chan struct{}
	mu             sync.RWMutex
	allowedOrigins []string
}

type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

type subscription struct {
	client   *WSClient
	channels []string
}

func NewWSHub(allowedOrigins []string) *WSHub {
	return &WSHub{
		clients:        make(map[*WSClient]bool),
		broadcast:      make(chan WSMessage, 256),
		register:       make(chan *WSClient),
		unregister:     make(chan *WSClient),
		subscribe:      make(chan subscription),
		last:           make(map[string][]byte),
		done:           make(chan struct{}),
		allowedOrigins: allowedOrigins,
	}
}

// Run serves hub events until ctx is cancelled.
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logger.WS.Debug().Str("username", client.username).Int("clients", n).Msg("client connected")

		case client := <-h.unregister:
			h.drop(client)
			logger.WS.Debug().Str("username", client.username).Msg("client disconnected")

		case sub := <-h.subscribe:
			h.mu.RLock()
			_, alive := h.clients[sub.client]
			h.mu.RUnlock()
			if !alive {
				continue
			}
			sub.client.mu.Lock()
			for _, ch := range sub.channels {
				sub.client.channels[ch] = true
			}
			sub.client.mu.Unlock()
			for _, ch := range sub.channels {
				if data, ok := h.last[ch]; ok {
					h.deliver(sub.client, data)
				}
			}

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			h.last[msg.Channel] = data

			h.mu.RLock()
			targets := make([]*WSClient, 0, len(h.clients))
			for client := range h.clients {
				client.mu.RLock()
				if client.channels[msg.Channel] {
					targets = append(targets, client)
				}
				client.mu.RUnlock()
			}
			h.mu.RUnlock()
			for _, client := range targets {
				h.deliver(client, data)
			}
		}
	}
}

// deliver queues data for client, dropping clients that cannot keep up.
// Only Run calls it, so a client's send channel is never closed underneath it.
func (h *WSHub) deliver(client *WSClient, data []byte) {
	select {
	case client.send <- data:
	default:
		h.drop(client)
	}
}

func (h *WSHub) drop(client *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast queues a message without blocking; it is dropped when the hub is saturated.
func (h *WSHub) Broadcast(channel string, msgType string, data interface{}) {
	select {
	case h.broadcast <- WSMessage{Type: msgType, Channel: channel, Data: data}:
	default:
		logger.WS.Warn().Str("channel", channel).Str("type", msgType).Msg("broadcast queue full, message dropped")
	}
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades authenticated viewers. Browsers cannot set headers on
// WebSocket requests, so ?token= is accepted alongside the cookie.
func (h *WSHub) HandleWS(jwtSecret string) http.HandlerFunc {
	wsUpgrader := newUpgrader(h.allowedOrigins)
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			tokenStr = TokenFromRequest(r)
		}
		if tokenStr == "" {
			FailErr(w, r, ErrUnauthorized)
			return
		}
		p, appErr := sessionFromToken(r, tokenStr, jwtSecret)
		if appErr != nil {
			FailErr(w, r, appErr)
			return
		}
		if p.MustChangePassword {
			FailErr(w, r, ErrPasswordChangeRequired)
			return
		}
		if !access.CheckPermission(p.Role, constants.PermView) {
			FailErr(w, r, ErrForbidden)
			return
		}

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WS.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		client := &WSClient{
			hub:      h,
			conn:     conn,
			send:     make(chan []byte, 256),
			username: p.Username,
			channels: make(map[string]bool),
		}
		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

func (c *WSClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg struct {
			Action   string   `json:"action"`
			Channel  string   `json:"channel"`
			Channels []string `json:"channels"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "subscribe":
			var chans []string
			for _, ch := range append(msg.Channels, msg.Channel) {
				if knownChannels[ch] {
					chans = append(chans, ch)
				}
			}
			if len(chans) > 0 {
				select {
				case c.hub.subscribe <- subscription{client: c, channels: chans}:
				case <-c.hub.done:
					return
				}
			}
		case "unsubscribe":
			c.mu.Lock()
			delete(c.channels, msg.Channel)
			c.mu.Unlock()
		}
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
