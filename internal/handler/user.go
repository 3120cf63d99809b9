package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/middleware"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/service"
)

type UserHandler struct {
	svc *service.ActorService
}

func NewUserHandler(svc *service.ActorService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetProfile handles GET /api/users/:userId
func (h *UserHandler) GetProfile(c fiber.Ctx) error {
	userID, errMsg := middleware.ValidateUserID(c.Params("userId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	profile, err := h.svc.Profile(c.Context(), userID)
	if err != nil {
		return writeError(c, err, "Failed to load user profile")
	}
	return c.JSON(profile)
}
