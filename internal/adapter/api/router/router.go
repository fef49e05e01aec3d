package router

import (
	"github.com/labstack/echo/v4"

	"modpanel/internal/adapter/api/handler"
	"modpanel/internal/adapter/api/middleware"
)

type Handlers struct {
	Message   *handler.MessageHandler
	User      *handler.UserHandler
	WebSocket *handler.WebSocketHandler
	DevToken  *handler.DevTokenHandler
	Health    *handler.HealthHandler
}

func Setup(
	e *echo.Echo,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	environment string,
) {
	SetupMessageRouter(e, h.Message, authMiddleware)
	SetupUserRouter(e, h.User, authMiddleware, adminMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)
	SetupHealthRouter(e, h.Health)
	SetupDevRouter(e, h.DevToken, environment)
}
