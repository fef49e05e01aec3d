package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFlagUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"false stays unread", `{"is_read": false}`, false},
		{"zero folds to unread", `{"is_read": 0}`, false},
		{"null folds to unread", `{"is_read": null}`, false},
		{"missing folds to unread", `{}`, false},
		{"true stays read", `{"is_read": true}`, true},
		{"one folds to read", `{"is_read": 1}`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var msg Message
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &msg))
			assert.Equal(t, tc.want, msg.IsRead.Bool())
		})
	}
}

func TestReadFlagUnmarshalRejectsStrings(t *testing.T) {
	var msg Message
	err := json.Unmarshal([]byte(`{"is_read": "yes"}`), &msg)
	assert.Error(t, err)
}

func TestReadFlagMarshalsAsPlainBool(t *testing.T) {
	payload, err := json.Marshal(Message{IsRead: true})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"is_read":true`)

	payload, err = json.Marshal(Message{})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"is_read":false`)
}

func TestHasContent(t *testing.T) {
	assert.False(t, (&Message{}).HasContent())
	assert.True(t, (&Message{Body: "hi"}).HasContent())
	assert.True(t, (&Message{Attachments: []Attachment{{URL: "https://x/y.png", Type: AttachmentImage}}}).HasContent())
}

func TestValidAttachmentType(t *testing.T) {
	for _, valid := range []string{AttachmentImage, AttachmentVoice, AttachmentVideo, AttachmentFile} {
		assert.True(t, ValidAttachmentType(valid), valid)
	}
	assert.False(t, ValidAttachmentType("gif"))
	assert.False(t, ValidAttachmentType(""))
}
