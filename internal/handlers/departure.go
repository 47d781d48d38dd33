package handlers

import (
	"github.com/gatherup/backend/internal/middleware"
	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/logger"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type DepartureHandler struct {
	Departure *services.DepartureService
}

func NewDepartureHandler(departure *services.DepartureService) *DepartureHandler {
	return &DepartureHandler{Departure: departure}
}

// Leave removes the caller from the group owning the trip. When they were the
// last member the whole group goes with them.
func (h *DepartureHandler) Leave(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	tripID, err := parseID(c.Params("tripId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid trip id")
	}

	if err := h.Departure.LeaveGroupByTripID(tripID, currentUser.ID); err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(formatID(currentUser.ID), "trip_left", map[string]interface{}{
		"trip_id": tripID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "left the trip"})
}
