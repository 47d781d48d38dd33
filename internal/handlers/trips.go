package handlers

import (
	"strings"

	"github.com/gatherup/backend/internal/middleware"
	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/logger"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type TripsHandler struct {
	Trips *services.TripService
}

func NewTripsHandler(trips *services.TripService) *TripsHandler {
	return &TripsHandler{Trips: trips}
}

func (h *TripsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req services.CreateTripInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.GroupName = strings.TrimSpace(req.GroupName)
	if req.GroupID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "groupId is required")
	}
	if req.GroupName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "groupName is required")
	}
	if strings.TrimSpace(req.Date) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "date is required")
	}

	trip, err := h.Trips.CreateTrip(currentUser.ID, req)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(formatID(currentUser.ID), "trip_created", map[string]interface{}{
		"trip_id":  trip.ID,
		"group_id": trip.GroupID,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"tripID": trip.ID,
	})
}

func (h *TripsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	tripID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid trip id")
	}

	details, err := h.Trips.TripDetails(tripID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, details)
}

func (h *TripsHandler) Mine(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	trips, err := h.Trips.UserTrips(currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, trips)
}

func (h *TripsHandler) Upcoming(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	trip, err := h.Trips.UpcomingTrip(currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, trip)
}

func (h *TripsHandler) UpdateLocation(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	locationID, err := parseID(c.Params("locationId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid location id")
	}

	var req services.UpdateLocationInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.LocationID = locationID

	if err := h.Trips.UpdateLocation(currentUser.ID, req); err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "location updated"})
}

func (h *TripsHandler) DeleteLocation(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	locationID, err := parseID(c.Params("locationId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid location id")
	}

	if err := h.Trips.DeleteLocation(currentUser.ID, locationID); err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "location deleted"})
}
