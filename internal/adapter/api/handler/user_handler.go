package handler

import (
	"github.com/labstack/echo/v4"

	"modpanel/internal/usecase"
	"modpanel/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{userUseCase: userUseCase}
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID := c.Get("uid").(string)

	user, err := h.userUseCase.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) ListAdministrators(c echo.Context) error {
	userID := c.Get("uid").(string)

	admins, err := h.userUseCase.ListAdministrators(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, admins)
}
