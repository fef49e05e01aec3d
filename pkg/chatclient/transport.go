package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"modpanel/internal/domain/entity"
)

// Event names as they arrive on the tenant channel.
const (
	EventMessageSent = "MessageSent"
	EventPresence    = "Presence"
	EventTyping      = "Typing"
)

// PresenceEvent is an online/offline transition for one user in the tenant.
type PresenceEvent struct {
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

// TypingEvent is a display-only typing indicator.
type TypingEvent struct {
	UserID   string `json:"user_id"`
	ToUserID string `json:"to_user_id"`
	IsTyping bool   `json:"is_typing"`
}

// Handlers receives decoded realtime events. Nil fields are skipped. Delivery
// is at-most-once and unordered across senders; OnMessage consumers dedupe by
// id, which Session.ApplyIncoming already does.
type Handlers struct {
	OnMessage  func(*entity.Message)
	OnPresence func(PresenceEvent)
	OnTyping   func(TypingEvent)

	// OnConnect fires after every successful dial, including re-dials. This
	// is where a client refetches its inbox: anything broadcast while the
	// socket was down is only recoverable from the store.
	OnConnect func()
}

// Transport maintains the WebSocket connection to the service, redialing with
// backoff when it drops.
type Transport struct {
	url      string
	token    string
	handlers Handlers

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewTransport(wsURL, token string, handlers Handlers) *Transport {
	return &Transport{
		url:      wsURL,
		token:    token,
		handlers: handlers,
	}
}

// Run dials and pumps events until ctx is cancelled. Each dropped connection
// is re-dialed with doubling backoff, capped at 30 seconds.
func (t *Transport) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		if err := t.connect(ctx); err != nil {
			log.Printf("chatclient: dial failed, retrying in %s: %v", backoff, err)
		} else {
			if t.handlers.OnConnect != nil {
				t.handlers.OnConnect()
			}
			t.readLoop(ctx)
			backoff = time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (t *Transport) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url+"?token="+t.token, nil)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (t *Transport) readLoop(ctx context.Context) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("chatclient: connection lost: %v", err)
			}
			return
		}

		var event wireEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("chatclient: bad event payload: %v", err)
			continue
		}

		t.dispatch(event)
	}
}

func (t *Transport) dispatch(event wireEvent) {
	switch event.Event {
	case EventMessageSent:
		if t.handlers.OnMessage == nil {
			return
		}
		var data struct {
			Message *entity.Message `json:"message"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.Message == nil {
			return
		}
		t.handlers.OnMessage(data.Message)

	case EventPresence:
		if t.handlers.OnPresence == nil {
			return
		}
		var data PresenceEvent
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return
		}
		t.handlers.OnPresence(data)

	case EventTyping:
		if t.handlers.OnTyping == nil {
			return
		}
		var data TypingEvent
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return
		}
		t.handlers.OnTyping(data)
	}
}

// SendTyping relays a typing indicator upstream. Fire and forget.
func (t *Transport) SendTyping(toUserID string, isTyping bool) error {
	frame := map[string]interface{}{
		"type":       "typing",
		"to_user_id": toUserID,
		"is_typing":  isTyping,
	}
	return t.writeJSON(frame)
}

// Ping sends a keepalive frame.
func (t *Transport) Ping() error {
	return t.writeJSON(map[string]string{"type": "ping"})
}

func (t *Transport) writeJSON(v interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("not connected")
	}
	return t.conn.WriteJSON(v)
}
