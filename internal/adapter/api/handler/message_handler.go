package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"modpanel/internal/domain/entity"
	"modpanel/internal/infrastructure/storage"
	"modpanel/internal/usecase"
	"modpanel/pkg/errors"
	"modpanel/pkg/response"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
	inboxUseCase   *usecase.InboxUseCase
	storageClient  *storage.CloudStorageClient
}

func NewMessageHandler(
	messageUseCase *usecase.MessageUseCase,
	inboxUseCase *usecase.InboxUseCase,
	storageClient *storage.CloudStorageClient,
) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
		inboxUseCase:   inboxUseCase,
		storageClient:  storageClient,
	}
}

type attachmentRequest struct {
	URL  string `json:"url" validate:"required,url"`
	Name string `json:"name"`
	Type string `json:"type" validate:"required,oneof=image voice video file"`
}

type sendMessageRequest struct {
	ToUserID    string              `json:"to_user_id" validate:"required"`
	Type        string              `json:"type" validate:"required,oneof=message support"`
	Body        string              `json:"body"`
	Attachments []attachmentRequest `json:"attachments"`
	TaskID      string              `json:"task_id"`
	FromUserID  string              `json:"from_user_id"`
}

type editMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

type markChatReadRequest struct {
	FromUserID string `json:"from_user_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=message support"`
	ToUserID   string `json:"to_user_id"`
}

// GetMessages returns the viewer's inbox: tabs for administrators, a flat chat
// list for moderators.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	userID := c.Get("uid").(string)

	msgType := c.QueryParam("type")
	if msgType == "" {
		msgType = entity.MessageTypeDirect
	}

	inbox, err := h.inboxUseCase.GetInbox(c.Request().Context(), userID, msgType)
	if err != nil {
		return response.Error(c, err)
	}

	if inbox.Admin != nil {
		return response.Success(c, inbox.Admin)
	}
	return response.Success(c, inbox.Chats)
}

// SendMessage accepts JSON, or multipart form data when files ride along.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID := c.Get("uid").(string)

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return h.sendMultipart(c, userID)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	attachments := make([]entity.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, entity.Attachment{URL: a.URL, Name: a.Name, Type: a.Type})
	}

	message, err := h.messageUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ToUserID:    req.ToUserID,
		Type:        req.Type,
		Body:        req.Body,
		Attachments: attachments,
		TaskID:      req.TaskID,
		FromUserID:  req.FromUserID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *MessageHandler) sendMultipart(c echo.Context, userID string) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.Error(c, errors.BadRequest("Invalid multipart form", err))
	}

	formValue := func(key string) string {
		if values := form.Value[key]; len(values) > 0 {
			return values[0]
		}
		return ""
	}

	msgType := formValue("type")
	if msgType == "" {
		msgType = entity.MessageTypeDirect
	}

	var attachments []entity.Attachment
	for _, fileHeader := range form.File["files"] {
		src, err := fileHeader.Open()
		if err != nil {
			return response.Error(c, errors.BadRequest("Failed to read uploaded file", err))
		}

		fileContentType := fileHeader.Header.Get("Content-Type")
		url, err := h.storageClient.UploadAttachment(c.Request().Context(), src, fileContentType, userID)
		src.Close()
		if err != nil {
			return response.Error(c, errors.Internal("Failed to store attachment", err))
		}

		attachments = append(attachments, entity.Attachment{
			URL:  url,
			Name: fileHeader.Filename,
			Type: storage.AttachmentKind(fileContentType),
		})
	}

	message, err := h.messageUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ToUserID:    formValue("to_user_id"),
		Type:        msgType,
		Body:        formValue("body"),
		Attachments: attachments,
		TaskID:      formValue("task_id"),
		FromUserID:  formValue("from_user_id"),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *MessageHandler) EditMessage(c echo.Context) error {
	messageID := c.Param("id")
	userID := c.Get("uid").(string)

	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.EditMessage(c.Request().Context(), userID, messageID, req.Body)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	messageID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.messageUseCase.DeleteMessage(c.Request().Context(), userID, messageID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *MessageHandler) MarkChatRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req markChatReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	updated, err := h.messageUseCase.MarkChatRead(c.Request().Context(), userID, usecase.MarkChatReadInput{
		FromUserID: req.FromUserID,
		Type:       req.Type,
		ToUserID:   req.ToUserID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"updated": updated})
}
