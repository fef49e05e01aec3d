package router

import (
	"github.com/labstack/echo/v4"

	"modpanel/internal/adapter/api/handler"
	"modpanel/internal/adapter/api/middleware"
)

// SetupMessageRouter sets up the messaging routes.
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate)

	messageGroup.GET("", messageHandler.GetMessages)             // GET /v1/messages?type=message|support
	messageGroup.POST("", messageHandler.SendMessage)            // POST /v1/messages - JSON or multipart
	messageGroup.PUT("/:id", messageHandler.EditMessage)         // PUT /v1/messages/:id
	messageGroup.DELETE("/:id", messageHandler.DeleteMessage)    // DELETE /v1/messages/:id
	messageGroup.POST("/mark-chat-read", messageHandler.MarkChatRead)
}
