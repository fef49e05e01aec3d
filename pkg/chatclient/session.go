package chatclient

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"modpanel/internal/domain/entity"
)

const tempIDPrefix = "temp-"

// chatState is one conversation as the client holds it.
type chatState struct {
	messages   []*entity.Message
	markedRead bool
}

// Session is the client-side view of the user's chats. It reconciles three
// message sources into one consistent state per counterparty: fetched
// snapshots, realtime events and optimistic local sends. All methods are safe
// for concurrent use.
type Session struct {
	selfID string

	mu    sync.Mutex
	chats map[string]*chatState
}

func NewSession(selfID string) *Session {
	return &Session{
		selfID: selfID,
		chats:  make(map[string]*chatState),
	}
}

func (s *Session) chat(counterpartyID string) *chatState {
	state, ok := s.chats[counterpartyID]
	if !ok {
		state = &chatState{}
		s.chats[counterpartyID] = state
	}
	return state
}

// counterpartyOf returns the other participant of a message, or "" when the
// session owner is not a participant at all.
func (s *Session) counterpartyOf(msg *entity.Message) string {
	switch s.selfID {
	case msg.FromUserID:
		return msg.ToUserID
	case msg.ToUserID:
		return msg.FromUserID
	}
	return ""
}

// ApplySnapshot merges a fetched message list into one chat. Used on initial
// load and after every reconnect; anything held only locally survives.
func (s *Session) ApplySnapshot(counterpartyID string, messages []*entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.chat(counterpartyID)
	state.messages = MergeMessagesByID(state.messages, messages)
	if UnreadCount(s.selfID, state.messages) > 0 {
		state.markedRead = false
	}
}

// ApplyIncoming folds one realtime message into the session. Duplicate
// deliveries of the same id collapse; an edit or delete replaces the stored
// copy. Returns true when the message is a not-previously-seen unread one
// addressed to the session owner.
func (s *Session) ApplyIncoming(msg *entity.Message) bool {
	counterpartyID := s.counterpartyOf(msg)
	if counterpartyID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.chat(counterpartyID)
	before := state.messages
	state.messages = MergeMessagesByID(before, []*entity.Message{msg})

	newUnread := DetectNewUnread(s.selfID, before, state.messages)
	if len(newUnread) > 0 {
		state.markedRead = false
		return true
	}
	return false
}

// AddPending records an optimistic local send and returns the placeholder
// message. It renders immediately under a temp id until the server confirms.
func (s *Session) AddPending(toUserID, msgType, body string, attachments []entity.Attachment) *entity.Message {
	msg := &entity.Message{
		ID:          tempIDPrefix + uuid.New().String(),
		FromUserID:  s.selfID,
		ToUserID:    toUserID,
		Type:        msgType,
		Body:        body,
		Attachments: attachments,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.chat(toUserID)
	state.messages = append(state.messages, msg)
	return msg
}

// ConfirmPending swaps a placeholder for the server's persisted message. When
// the realtime copy arrived first the placeholder is simply dropped: the
// confirmed id is already present and must not appear twice.
//
// The chat is located by the placeholder, not by the confirmed message's
// participants: an administrator sending as another administrator gets back a
// message that names neither itself, and the placeholder must still resolve.
func (s *Session) ConfirmPending(tempID string, confirmed *entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, state := range s.chats {
		if !removeByID(state, tempID) {
			continue
		}
		state.messages = MergeMessagesByID(state.messages, []*entity.Message{confirmed})
		return
	}

	// No placeholder left; file the confirmed copy under its counterparty
	// when the session owner is a participant.
	if counterpartyID := s.counterpartyOf(confirmed); counterpartyID != "" {
		state := s.chat(counterpartyID)
		state.messages = MergeMessagesByID(state.messages, []*entity.Message{confirmed})
	}
}

func removeByID(state *chatState, id string) bool {
	for i, msg := range state.messages {
		if msg.ID == id {
			state.messages = append(state.messages[:i], state.messages[i+1:]...)
			return true
		}
	}
	return false
}

// FailPending removes a placeholder whose send was rejected.
func (s *Session) FailPending(counterpartyID, tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.chats[counterpartyID]
	if !ok {
		return
	}

	kept := state.messages[:0]
	for _, msg := range state.messages {
		if msg.ID != tempID {
			kept = append(kept, msg)
		}
	}
	state.messages = kept
}

// Messages returns a copy of one chat's messages in created_at order.
func (s *Session) Messages(counterpartyID string) []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.chats[counterpartyID]
	if !ok {
		return nil
	}
	out := make([]*entity.Message, len(state.messages))
	copy(out, state.messages)
	return out
}

// Unread returns the live unread count for one chat.
func (s *Session) Unread(counterpartyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.chats[counterpartyID]
	if !ok {
		return 0
	}
	return UnreadCount(s.selfID, state.messages)
}

// OpenChat reports whether opening this chat should fire a mark-read call.
// It fires at most once per unread episode: once marked, reopening the chat
// stays quiet until a new unread message re-arms it. When it returns true the
// inbound messages are also flipped read locally, so unread badges clear
// without waiting for the server round trip.
func (s *Session) OpenChat(counterpartyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.chat(counterpartyID)
	if state.markedRead || UnreadCount(s.selfID, state.messages) == 0 {
		return false
	}

	now := time.Now()
	for _, msg := range state.messages {
		if msg.ToUserID == s.selfID && !msg.IsRead.Bool() {
			msg.IsRead = true
			msg.ReadAt = &now
		}
	}
	state.markedRead = true
	return true
}
