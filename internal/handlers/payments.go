package handlers

import (
	"github.com/gatherup/backend/internal/middleware"
	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/logger"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type PaymentsHandler struct {
	Payments *services.PaymentService
}

func NewPaymentsHandler(payments *services.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{Payments: payments}
}

type savePaymentsRequest struct {
	Payments []services.SavePaymentInput `json:"payments"`
}

func (h *PaymentsHandler) Save(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	tripID, err := parseID(c.Params("tripId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid trip id")
	}

	var req savePaymentsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Payments) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "payments are required")
	}
	for _, payment := range req.Payments {
		if payment.TotalPrice <= 0 {
			return utils.Error(c, fiber.StatusBadRequest, "price must be positive")
		}
		if payment.PaidByID == 0 {
			return utils.Error(c, fiber.StatusBadRequest, "paidByID is required")
		}
	}

	saved, err := h.Payments.SavePayments(tripID, req.Payments)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(formatID(currentUser.ID), "payments_saved", map[string]interface{}{
		"trip_id": tripID,
		"count":   len(saved),
	})

	return utils.Success(c, fiber.StatusCreated, saved)
}

type updatePaymentsRequest struct {
	Payments []services.UpdatePaymentInput `json:"payments"`
}

func (h *PaymentsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	tripID, err := parseID(c.Params("tripId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid trip id")
	}

	var req updatePaymentsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Payments) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "payments are required")
	}
	for _, payment := range req.Payments {
		if payment.PaymentID == 0 {
			return utils.Error(c, fiber.StatusBadRequest, "paymentId is required")
		}
		if payment.TotalPrice != nil && *payment.TotalPrice <= 0 {
			return utils.Error(c, fiber.StatusBadRequest, "price must be positive")
		}
	}

	if err := h.Payments.UpdatePayments(tripID, req.Payments); err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "payments updated"})
}

func (h *PaymentsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	tripID, err := parseID(c.Params("tripId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid trip id")
	}

	payments, err := h.Payments.PaymentsByTrip(tripID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, payments)
}

func (h *PaymentsHandler) Members(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	tripID, err := parseID(c.Params("tripId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid trip id")
	}

	members, err := h.Payments.TripMembers(tripID)
	if err != nil {
		return serviceError(c, err)
	}
	for i := range members {
		members[i].IsMe = members[i].UserID == currentUser.ID
	}
	return utils.Success(c, fiber.StatusOK, members)
}

func (h *PaymentsHandler) SettleShare(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	paymentID, err := parseID(c.Params("paymentId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid payment id")
	}

	if err := h.Payments.SettleShare(paymentID, currentUser.ID); err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "share settled"})
}
