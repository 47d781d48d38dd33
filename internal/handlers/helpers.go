package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseID(value string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

// serviceError maps the service sentinels onto HTTP statuses. Anything
// unrecognized is a 500; contention exhaustion included, since by then the
// retries are spent.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrTripNotFound),
		errors.Is(err, services.ErrLocationNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrInviteNotFound):
		return utils.Error(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrNotHost):
		return utils.Error(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrVersionConflict):
		return utils.Error(c, fiber.StatusConflict, err.Error())
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}
}
