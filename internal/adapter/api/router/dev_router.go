package router

import (
	"github.com/labstack/echo/v4"

	"modpanel/internal/adapter/api/handler"
	"modpanel/internal/adapter/api/middleware"
)

func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler, environment string) {
	if environment != "development" {
		return
	}

	e.POST("/_dev/token", devTokenHandler.CreateToken, middleware.TokenRateLimit())
}
