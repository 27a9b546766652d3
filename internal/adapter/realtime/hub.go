// Package realtime pushes lifecycle events to connected back-office dashboards.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"rentadvance-backend/internal/domain/notification"
	"rentadvance-backend/pkg/jwt"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const sendBuffer = 256

// Client is a single dashboard connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	role   string
}

type envelope struct {
	client *Client
	data   []byte
	pmID   string
}

// Hub fans events out to connected clients. Admins see every event. Property
// managers only see events for their own portfolio.
type Hub struct {
	upgrader   websocket.Upgrader
	secret     string
	log        zerolog.Logger
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub(secret string, allowedOrigins []string, log zerolog.Logger) *Hub {
	h := &Hub{
		secret:     secret,
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Run dispatches until ctx is cancelled, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Debug().Str("user_id", c.userID).Str("role", c.role).Msg("realtime: client connected")
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Debug().Str("user_id", c.userID).Msg("realtime: client disconnected")
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if c.role != jwt.RoleAdmin && c.userID != msg.pmID {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					// slow consumer
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Clients reports the number of registered connections.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify queues the public view of ev. It never carries the owner link.
func (h *Hub) Notify(ctx context.Context, ev notification.Event) error {
	data, err := json.Marshal(ev.Public())
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- envelope{data: data, pmID: ev.PropertyManagerID}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Str("user_id", c.userID).Msg("realtime: read failed")
			}
			return
		}
	}
}

// ServeWs authenticates the token query parameter and upgrades the request.
func (h *Hub) ServeWs(c echo.Context) error {
	tokenString := c.QueryParam("token")
	if tokenString == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	claims, err := jwt.ValidateAccessToken(tokenString, h.secret)
	if err != nil {
		h.log.Info().Err(err).Msg("realtime: connection rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if claims.Role != jwt.RoleAdmin && claims.Role != jwt.RolePropertyManager {
		return echo.NewHTTPError(http.StatusForbidden, "inadequate permissions")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("realtime: upgrade failed")
		return nil
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), userID: claims.UserID, role: claims.Role}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}
