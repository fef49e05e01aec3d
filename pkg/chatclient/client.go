package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"modpanel/internal/domain/entity"
)

// Client calls the messaging REST API. Realtime delivery rides on Transport;
// everything durable goes through here.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// APIError is a rejected API call.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ChatView is one conversation as the moderator inbox endpoint returns it.
type ChatView struct {
	User        *entity.User      `json:"user"`
	Messages    []*entity.Message `json:"messages"`
	UnreadCount int               `json:"unread_count"`
}

// AdminTabView is one administrator tab of the admin inbox.
type AdminTabView struct {
	Admin *entity.User `json:"admin,omitempty"`
	Chats []*ChatView  `json:"chats"`
}

// AdminInboxView is the tabbed admin inbox.
type AdminInboxView struct {
	Tabs       []*AdminTabView `json:"tabs"`
	Unassigned *AdminTabView   `json:"unassigned"`
}

// SendMessageRequest is the JSON send payload. FromUserID lets an
// administrator send under their own identity while viewing another admin's
// tab; moderators leave it empty.
type SendMessageRequest struct {
	ToUserID    string              `json:"to_user_id"`
	Type        string              `json:"type"`
	Body        string              `json:"body,omitempty"`
	Attachments []entity.Attachment `json:"attachments,omitempty"`
	TaskID      string              `json:"task_id,omitempty"`
	FromUserID  string              `json:"from_user_id,omitempty"`
}

// MarkChatReadRequest marks one direction of a chat read.
type MarkChatReadRequest struct {
	FromUserID string `json:"from_user_id"`
	Type       string `json:"type"`
	ToUserID   string `json:"to_user_id,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
	}

	if !env.Success {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "UNKNOWN", Message: http.StatusText(resp.StatusCode)}
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// GetProfile fetches the caller's own account, including role and domain.
// Clients call this first to decide which inbox shape to expect.
func (c *Client) GetProfile(ctx context.Context) (*entity.User, error) {
	var user entity.User
	if err := c.do(ctx, http.MethodGet, "/v1/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetModeratorInbox fetches the flat chat list for a moderator account.
func (c *Client) GetModeratorInbox(ctx context.Context, msgType string) ([]*ChatView, error) {
	var chats []*ChatView
	if err := c.do(ctx, http.MethodGet, "/v1/messages?type="+msgType, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// GetAdministratorInbox fetches the tabbed inbox for an administrator account.
func (c *Client) GetAdministratorInbox(ctx context.Context, msgType string) (*AdminInboxView, error) {
	var inbox AdminInboxView
	if err := c.do(ctx, http.MethodGet, "/v1/messages?type="+msgType, nil, &inbox); err != nil {
		return nil, err
	}
	return &inbox, nil
}

// SendMessage persists one message and returns the server's copy, id and
// timestamps assigned.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*entity.Message, error) {
	var msg entity.Message
	if err := c.do(ctx, http.MethodPost, "/v1/messages", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage replaces the body of one of the caller's own messages.
func (c *Client) EditMessage(ctx context.Context, messageID, body string) (*entity.Message, error) {
	var msg entity.Message
	payload := map[string]string{"body": body}
	if err := c.do(ctx, http.MethodPut, "/v1/messages/"+messageID, payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage tombstones one of the caller's own messages.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/messages/"+messageID, nil, nil)
}

// MarkChatRead marks every unread message of one chat direction read and
// returns how many rows flipped. Zero is a normal answer: the call is
// idempotent.
func (c *Client) MarkChatRead(ctx context.Context, req MarkChatReadRequest) (int, error) {
	var result struct {
		Updated int `json:"updated"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/messages/mark-chat-read", req, &result); err != nil {
		return 0, err
	}
	return result.Updated, nil
}
