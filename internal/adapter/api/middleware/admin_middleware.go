package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"modpanel/internal/domain/entity"
	"modpanel/internal/domain/repository"
)

type AdminMiddleware struct {
	userRepo repository.UserRepository
}

func NewAdminMiddleware(userRepo repository.UserRepository) *AdminMiddleware {
	return &AdminMiddleware{
		userRepo: userRepo,
	}
}

func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("uid").(string)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		user, err := m.userRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to verify administrator privileges")
		}

		if user.Role != entity.RoleAdministrator {
			return echo.NewHTTPError(http.StatusForbidden, "Administrator privileges required")
		}

		return next(c)
	}
}
