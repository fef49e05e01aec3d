package router

import (
	"github.com/labstack/echo/v4"

	"modpanel/internal/adapter/api/handler"
	"modpanel/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	userGroup := e.Group("/v1/users")
	userGroup.Use(authMiddleware.Authenticate)

	userGroup.GET("/me", userHandler.GetProfile)

	// Administrator listing backs the tab headers in the admin view.
	userGroup.GET("/administrators", userHandler.ListAdministrators, adminMiddleware.AdminOnly)
}
