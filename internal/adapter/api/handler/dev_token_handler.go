package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"modpanel/internal/domain/repository"
	"modpanel/internal/infrastructure/firebase"
	"modpanel/pkg/errors"
	"modpanel/pkg/response"
)

// DevTokenHandler mints locally signed tokens so the API can be exercised
// without a Firebase project. Routed in development only.
type DevTokenHandler struct {
	verifier *firebase.TokenVerifier
	userRepo repository.UserRepository
	tokenTTL time.Duration
}

func NewDevTokenHandler(verifier *firebase.TokenVerifier, userRepo repository.UserRepository, tokenTTL time.Duration) *DevTokenHandler {
	return &DevTokenHandler{
		verifier: verifier,
		userRepo: userRepo,
		tokenTTL: tokenTTL,
	}
}

type devTokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *DevTokenHandler) CreateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if _, err := h.userRepo.GetByID(c.Request().Context(), req.UserID); err != nil {
		return response.Error(c, errors.NotFound("User not found", err))
	}

	token, err := h.verifier.MintDevToken(req.UserID, h.tokenTTL)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to mint token", err))
	}

	return response.Success(c, map[string]string{"token": token})
}
