package websocket

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"modpanel/internal/infrastructure/ratelimit"
)

// Client represents one authenticated WebSocket connection.
type Client struct {
	UserID   string
	DomainID string
	Conn     *websocket.Conn
	Send     chan []byte
}

// Manager owns every active connection, partitioned into per-tenant channels.
// It is also the single writer of the live presence set: presence flips only
// on register/unregister, never from message handling paths.
type Manager struct {
	clients    map[string]*Client
	domains    map[string]map[string]*Client
	presence   map[string]bool
	subs       map[string]map[int]func(Event)
	nextSubID  int
	Register   chan *Client
	Unregister chan *Client
	limiter    *ratelimit.RateLimiter
	mutex      sync.RWMutex
}

// NewManager creates a new WebSocket connection manager.
func NewManager() *Manager {
	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine()

	return &Manager{
		clients:    make(map[string]*Client),
		domains:    make(map[string]map[string]*Client),
		presence:   make(map[string]bool),
		subs:       make(map[string]map[int]func(Event)),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		limiter:    limiter,
	}
}

// DomainChannel returns the channel name events for a tenant are published on.
func DomainChannel(domainID string) string {
	return fmt.Sprintf("domain.%s", domainID)
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if existing, ok := m.clients[client.UserID]; ok {
					close(existing.Send)
					m.removeLocked(existing)
				}
				m.clients[client.UserID] = client
				if m.domains[client.DomainID] == nil {
					m.domains[client.DomainID] = make(map[string]*Client)
				}
				m.domains[client.DomainID][client.UserID] = client
				m.presence[client.UserID] = true
				m.mutex.Unlock()

				log.Printf("Client registered: %s (domain %s)", client.UserID, client.DomainID)
				m.BroadcastPresence(client.DomainID, client.UserID, true)

			case client := <-m.Unregister:
				m.mutex.Lock()
				registered := m.clients[client.UserID] == client
				if registered {
					m.removeLocked(client)
					close(client.Send)
				}
				m.mutex.Unlock()

				if registered {
					log.Printf("Client unregistered: %s (domain %s)", client.UserID, client.DomainID)
					m.BroadcastPresence(client.DomainID, client.UserID, false)
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) removeLocked(client *Client) {
	delete(m.clients, client.UserID)
	if room, ok := m.domains[client.DomainID]; ok {
		delete(room, client.UserID)
		if len(room) == 0 {
			delete(m.domains, client.DomainID)
		}
	}
	delete(m.presence, client.UserID)
}

// IsOnline reports live presence for a user. A fresh process starts with an
// empty set; only connect/disconnect lifecycle changes it.
func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.presence[userID]
}

// Subscribe attaches an in-process handler to one tenant's channel and returns
// the function that detaches it. Handlers must tolerate duplicate events.
func (m *Manager) Subscribe(domainID string, handler func(Event)) func() {
	m.mutex.Lock()
	if m.subs[domainID] == nil {
		m.subs[domainID] = make(map[int]func(Event))
	}
	id := m.nextSubID
	m.nextSubID++
	m.subs[domainID][id] = handler
	m.mutex.Unlock()

	return func() {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		if handlers, ok := m.subs[domainID]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(m.subs, domainID)
			}
		}
	}
}

// publish delivers an event to every connection and in-process subscriber on
// one tenant's channel. Connections in other domains never see it.
func (m *Manager) publish(domainID string, event Event) {
	payload, err := event.marshal()
	if err != nil {
		log.Printf("WebSocket: failed to marshal %s event for %s: %v", event.Event, DomainChannel(domainID), err)
		return
	}

	m.mutex.RLock()
	room := m.domains[domainID]
	targets := make([]*Client, 0, len(room))
	for _, client := range room {
		targets = append(targets, client)
	}
	handlers := make([]func(Event), 0, len(m.subs[domainID]))
	for _, h := range m.subs[domainID] {
		handlers = append(handlers, h)
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		if m.trySend(client, payload) {
			continue
		}
		log.Printf("WebSocket: client %s send buffer full, dropping connection", client.UserID)
		m.mutex.Lock()
		if m.clients[client.UserID] == client {
			m.removeLocked(client)
			close(client.Send)
		}
		m.mutex.Unlock()
	}

	for _, h := range handlers {
		h(event)
	}
}

// trySend queues a payload for one connection without blocking. Sending while
// holding the read lock keeps the channel alive for the duration: every close
// happens under the write lock, after the client leaves the maps. Returns
// false only when the connection is still registered and its buffer is full.
func (m *Manager) trySend(client *Client, payload []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.clients[client.UserID] != client {
		return true
	}

	select {
	case client.Send <- payload:
		return true
	default:
		return false
	}
}

// SendToUser delivers a raw payload to one connected user, if present.
func (m *Manager) SendToUser(userID string, payload []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	client, ok := m.clients[userID]
	if !ok {
		return
	}

	select {
	case client.Send <- payload:
	default:
		log.Printf("WebSocket: client %s send buffer full on direct send", userID)
	}
}

// ReadPump reads messages from the WebSocket connection.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, payload)
	}
}

// WritePump sends messages to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("WebSocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
