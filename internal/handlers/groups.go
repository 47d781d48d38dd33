package handlers

import (
	"strings"

	"github.com/gatherup/backend/internal/middleware"
	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/pkg/logger"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GroupsHandler struct {
	Groups *services.GroupService
	Trips  *services.TripService
}

func NewGroupsHandler(groups *services.GroupService, trips *services.TripService) *GroupsHandler {
	return &GroupsHandler{Groups: groups, Trips: trips}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	group, err := h.Groups.CreateGroup(req.Name, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(formatID(currentUser.ID), "group_created", map[string]interface{}{
		"group_id":   group.ID,
		"group_name": group.Name,
	})

	return utils.Success(c, fiber.StatusCreated, group)
}

func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	group, err := h.Groups.GroupDetails(groupID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, group)
}

func (h *GroupsHandler) Members(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	members, err := h.Groups.GroupMembers(groupID)
	if err != nil {
		return serviceError(c, err)
	}
	for i := range members {
		members[i].IsMe = members[i].UserID == currentUser.ID
	}
	return utils.Success(c, fiber.StatusOK, members)
}

func (h *GroupsHandler) CreateInvite(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	code, err := h.Groups.CreateInviteLink(groupID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"code": code,
	})
}

func (h *GroupsHandler) JoinByInvite(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	code, err := uuid.Parse(strings.TrimSpace(c.Params("code")))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid invite code")
	}

	group, err := h.Groups.JoinByInvite(code, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, group)
}

// Previous resumes the user's latest unfinished planning session. A 404 here
// just means there is nothing to resume.
func (h *GroupsHandler) Previous(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	group, err := h.Groups.PreviousGroup(currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, group)
}

// JoinExisting resolves the trip of an already-scheduled group, so a member
// who joins late lands on the itinerary directly.
func (h *GroupsHandler) JoinExisting(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if _, err := h.Groups.EnsureMembership(groupID, currentUser.ID); err != nil {
		return serviceError(c, err)
	}

	tripID, err := h.Trips.TripIDForGroup(groupID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"tripID": tripID,
	})
}
