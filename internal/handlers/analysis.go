package handlers

import (
	"github.com/gatherup/backend/internal/middleware"
	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AnalysisHandler struct {
	Analysis *services.AnalysisService
}

func NewAnalysisHandler(analysis *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{Analysis: analysis}
}

func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	tripID, err := parseID(c.Params("tripId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid trip id")
	}

	analysis, err := h.Analysis.AnalyzeExpenses(tripID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, analysis)
}
