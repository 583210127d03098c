// Package ws fans out stock, tally and presence changes to connected
// dashboards. A client only receives events about rows its principal may
// see.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"go-accounting/internal/access"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is the write side of a socket.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type subscription struct {
	client    Client
	principal access.Principal
}

type envelope struct {
	owner uuid.UUID
	msg   []byte
}

type Hub struct {
	Clients    map[Client]access.Principal
	register   chan subscription
	unregister chan Client
	broadcast  chan envelope
	done       chan struct{}
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[Client]access.Principal),
		register:   make(chan subscription),
		unregister: make(chan Client),
		broadcast:  make(chan envelope, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every socket.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.Clients {
				c.Close()
				delete(h.Clients, c)
			}
			h.mutex.Unlock()
			return

		case sub := <-h.register:
			h.mutex.Lock()
			h.Clients[sub.client] = sub.principal
			h.mutex.Unlock()
			log.Printf("ws: client connected (user %s)", sub.principal.Actor())

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[c]; ok {
				delete(h.Clients, c)
				c.Close()
			}
			h.mutex.Unlock()

		case ev := <-h.broadcast:
			h.mutex.Lock()
			for c, p := range h.Clients {
				if !access.Visible(ev.owner, p) {
					continue
				}
				if err := c.WriteMessage(websocket.TextMessage, ev.msg); err != nil {
					c.Close()
					delete(h.Clients, c)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Subscribe adds c as a listener acting as p. It reports false once the
// hub has stopped.
func (h *Hub) Subscribe(c Client, p access.Principal) bool {
	select {
	case h.register <- subscription{client: c, principal: p}:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe removes and closes c.
func (h *Hub) Unsubscribe(c Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Attach serves one authenticated connection until the client goes away.
// Clients only listen; anything they send is discarded. A connection
// without a principal is closed straight away.
func (h *Hub) Attach(conn *websocket.Conn, p access.Principal) {
	if p.UserID == uuid.Nil {
		conn.Close()
		return
	}
	if !h.Subscribe(conn, p) {
		conn.Close()
		return
	}
	defer h.Unsubscribe(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Notify marshals payload and queues it for the clients allowed to see
// owner's rows, without blocking the caller, which is usually a request
// handler that has just committed. Events queued after Run has stopped are
// dropped.
func (h *Hub) Notify(owner uuid.UUID, payload map[string]interface{}) {
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshal %v: %v", payload["type"], err)
		return
	}
	go func() {
		select {
		case h.broadcast <- envelope{owner: owner, msg: msg}:
		case <-h.done:
		}
	}()
}

// ClientCount is the number of connected sockets.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}
