package handlers

import (
	"github.com/gatherup/backend/internal/middleware"
	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type HistoryHandler struct {
	History *services.HistoryService
}

func NewHistoryHandler(history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{History: history}
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	histories, err := h.History.History(currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, histories)
}
