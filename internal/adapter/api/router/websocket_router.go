package router

import (
	"github.com/labstack/echo/v4"

	"modpanel/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the WebSocket route. Authentication happens
// inside the handler via the token query parameter.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleConnection)
}
