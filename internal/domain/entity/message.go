package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message type: two logically separate inboxes sharing one schema.
const (
	MessageTypeDirect  = "message"
	MessageTypeSupport = "support"
)

// Attachment kinds accepted on a message.
const (
	AttachmentImage = "image"
	AttachmentVoice = "voice"
	AttachmentVideo = "video"
	AttachmentFile  = "file"
)

type Message struct {
	ID          string       `json:"id" firestore:"id"`
	DomainID    string       `json:"domain_id" firestore:"domainId"`
	FromUserID  string       `json:"from_user_id" firestore:"fromUserId"`
	ToUserID    string       `json:"to_user_id" firestore:"toUserId"`
	Type        string       `json:"type" firestore:"type"` // "message" or "support"
	Body        string       `json:"body,omitempty" firestore:"body"`
	Attachments []Attachment `json:"attachments,omitempty" firestore:"attachments,omitempty"`
	TaskID      string       `json:"task_id,omitempty" firestore:"taskId,omitempty"` // opaque deep-link reference
	IsRead      ReadFlag     `json:"is_read" firestore:"isRead"`
	ReadAt      *time.Time   `json:"read_at,omitempty" firestore:"readAt,omitempty"`
	IsEdited    bool         `json:"is_edited" firestore:"isEdited"`
	IsDeleted   bool         `json:"is_deleted" firestore:"isDeleted"`
	CreatedAt   time.Time    `json:"created_at" firestore:"createdAt"`
}

type Attachment struct {
	URL  string `json:"url" firestore:"url"`
	Name string `json:"name" firestore:"name"`
	Type string `json:"type" firestore:"type"` // image, voice, video, file
}

// HasContent reports whether the message carries anything to deliver.
// A message with no body and no attachments is rejected at send time.
func (m *Message) HasContent() bool {
	return m.Body != "" || len(m.Attachments) > 0
}

// ValidAttachmentType reports whether t is one of the accepted attachment kinds.
func ValidAttachmentType(t string) bool {
	switch t {
	case AttachmentImage, AttachmentVoice, AttachmentVideo, AttachmentFile:
		return true
	}
	return false
}

// ReadFlag is the read marker for a message. Upstream data encodes "unread"
// inconsistently as false, 0 or null, so decoding folds all three into false
// here, once. Everything past this boundary sees a plain two-state bool.
type ReadFlag bool

func (f ReadFlag) Bool() bool { return bool(f) }

func (f ReadFlag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

func (f *ReadFlag) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*f = false
	case bool:
		*f = ReadFlag(v)
	case float64:
		*f = v != 0
	default:
		return fmt.Errorf("unsupported is_read value %q", string(data))
	}
	return nil
}
