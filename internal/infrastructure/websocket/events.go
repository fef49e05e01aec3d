package websocket

import (
	"encoding/json"
	"log"
	"time"

	"modpanel/internal/domain/entity"
)

// Event names published on a tenant channel.
const (
	EventMessageSent = "MessageSent"
	EventPresence    = "Presence"
	EventTyping      = "Typing"
)

// Inbound frame types accepted from clients.
const (
	frameTypePing   = "ping"
	frameTypePong   = "pong"
	frameTypeTyping = "typing"
)

// Event is the envelope every tenant-channel payload travels in. Delivery is
// at-most-once per hop with no cross-sender ordering; consumers dedupe by
// message id and order by created_at themselves.
type Event struct {
	Event     string          `json:"event"`
	Channel   string          `json:"channel"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

func (e Event) marshal() ([]byte, error) {
	return json.Marshal(e)
}

type MessageSentData struct {
	DomainID string          `json:"domain_id"`
	Message  *entity.Message `json:"message"`
}

type PresenceData struct {
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

type TypingData struct {
	UserID   string `json:"user_id"`
	ToUserID string `json:"to_user_id"`
	IsTyping bool   `json:"is_typing"`
}

func newEvent(domainID, name string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Event:     name,
		Channel:   DomainChannel(domainID),
		Data:      raw,
		Timestamp: time.Now().Format(time.RFC3339),
	}, nil
}

// BroadcastMessageSent publishes a persisted message to its tenant channel.
func (m *Manager) BroadcastMessageSent(domainID string, message *entity.Message) {
	event, err := newEvent(domainID, EventMessageSent, MessageSentData{
		DomainID: domainID,
		Message:  message,
	})
	if err != nil {
		log.Printf("WebSocket: failed to build MessageSent event: %v", err)
		return
	}
	m.publish(domainID, event)
}

// BroadcastPresence publishes an online/offline transition to a tenant channel.
func (m *Manager) BroadcastPresence(domainID, userID string, isOnline bool) {
	event, err := newEvent(domainID, EventPresence, PresenceData{
		UserID:   userID,
		IsOnline: isOnline,
	})
	if err != nil {
		log.Printf("WebSocket: failed to build Presence event: %v", err)
		return
	}
	m.publish(domainID, event)
}

// inboundFrame is what clients send upstream. Only keepalive and typing
// relays come this way; message sends go through the REST API.
type inboundFrame struct {
	Type     string `json:"type"`
	ToUserID string `json:"to_user_id,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

// HandleClientMessage processes one inbound client frame.
func (m *Manager) HandleClientMessage(client *Client, payload []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.Printf("WebSocket: bad frame from %s: %v", client.UserID, err)
		return
	}

	switch frame.Type {
	case frameTypePing:
		pong, _ := json.Marshal(map[string]string{
			"type":      frameTypePong,
			"timestamp": time.Now().Format(time.RFC3339),
		})
		m.SendToUser(client.UserID, pong)

	case frameTypeTyping:
		m.relayTyping(client, frame)

	default:
		log.Printf("WebSocket: unknown frame type %q from %s", frame.Type, client.UserID)
	}
}

// relayTyping forwards a typing indicator to its target, same tenant only.
// Display-only: typing never touches read state or unread counts.
func (m *Manager) relayTyping(client *Client, frame inboundFrame) {
	if frame.ToUserID == "" {
		return
	}

	if allowed, _ := m.limiter.Allow(client.UserID, "typing"); !allowed {
		return
	}

	m.mutex.RLock()
	target, ok := m.domains[client.DomainID][frame.ToUserID]
	m.mutex.RUnlock()
	if !ok {
		return
	}

	event, err := newEvent(client.DomainID, EventTyping, TypingData{
		UserID:   client.UserID,
		ToUserID: frame.ToUserID,
		IsTyping: frame.IsTyping,
	})
	if err != nil {
		return
	}

	payload, err := event.marshal()
	if err != nil {
		return
	}

	m.trySend(target, payload)
}
