package handler

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"modpanel/internal/adapter/api/middleware"
	"modpanel/internal/domain/repository"
	ws "modpanel/internal/infrastructure/websocket"
	"modpanel/pkg/errors"
	"modpanel/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	manager        *ws.Manager
	userRepo       repository.UserRepository
	authMiddleware *middleware.AuthMiddleware
}

func NewWebSocketHandler(
	manager *ws.Manager,
	userRepo repository.UserRepository,
	authMiddleware *middleware.AuthMiddleware,
) *WebSocketHandler {
	return &WebSocketHandler{
		manager:        manager,
		userRepo:       userRepo,
		authMiddleware: authMiddleware,
	}
}

// HandleConnection upgrades an authenticated request to a WebSocket session.
// Browsers cannot set headers on the upgrade request, so the token rides in
// the query string.
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.Error(c, errors.Unauthorized("Missing authentication token", nil))
	}

	userID, err := h.authMiddleware.VerifyToken(c, token)
	if err != nil {
		return response.Error(c, errors.Unauthorized("Invalid authentication token", err))
	}

	user, err := h.userRepo.GetByID(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for %s: %v", userID, err)
		return err
	}

	client := &ws.Client{
		UserID:   user.ID,
		DomainID: user.DomainID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.manager)

	return nil
}
