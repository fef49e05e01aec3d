package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"modpanel/internal/infrastructure/firebase"
)

type AuthMiddleware struct {
	verifier *firebase.TokenVerifier
}

func NewAuthMiddleware(verifier *firebase.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		uid, err := m.verifier.Verify(c.Request().Context(), parts[1])
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set("uid", uid)

		return next(c)
	}
}

// VerifyToken resolves a raw bearer token to a user id. The WebSocket
// endpoint authenticates via query parameter instead of header and calls this
// directly.
func (m *AuthMiddleware) VerifyToken(c echo.Context, token string) (string, error) {
	return m.verifier.Verify(c.Request().Context(), token)
}
