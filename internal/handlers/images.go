package handlers

import (
	"github.com/gatherup/backend/internal/middleware"
	"github.com/gatherup/backend/internal/models"
	"github.com/gatherup/backend/internal/services"
	"github.com/gatherup/backend/internal/storage"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ImagesHandler accepts multipart image uploads, stores them in the object
// store, and points the owning row at the resulting URL.
type ImagesHandler struct {
	DB      *gorm.DB
	Storage *storage.MinIOClient
	History *services.HistoryService
}

func NewImagesHandler(db *gorm.DB, store *storage.MinIOClient, history *services.HistoryService) *ImagesHandler {
	return &ImagesHandler{DB: db, Storage: store, History: history}
}

const maxImageSize = 10 * 1024 * 1024

func (h *ImagesHandler) uploadFormFile(c *fiber.Ctx, field, objectName string) (string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, field+" file is required")
	}
	if fileHeader.Size > maxImageSize {
		return "", fiber.NewError(fiber.StatusBadRequest, "image exceeds the 10MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "failed reading upload")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if err := h.Storage.Upload(c.Context(), objectName, file, fileHeader.Size, contentType); err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "failed storing image")
	}

	return h.Storage.PublicURL(objectName), nil
}

func (h *ImagesHandler) GroupThumbnail(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "image storage unavailable")
	}

	groupID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	url, err := h.uploadFormFile(c, "thumbnail", storage.GroupThumbnailKey(groupID))
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return utils.Error(c, fiberErr.Code, fiberErr.Message)
		}
		return utils.Error(c, fiber.StatusInternalServerError, "upload failed")
	}

	result := h.DB.Model(&models.Group{}).Where("id = ?", groupID).Update("thumbnail", url)
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving thumbnail")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "group not found")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"thumbnailUrl": url})
}

func (h *ImagesHandler) GroupBackground(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "image storage unavailable")
	}

	groupID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	url, err := h.uploadFormFile(c, "background", storage.GroupBackgroundKey(groupID))
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return utils.Error(c, fiberErr.Code, fiberErr.Message)
		}
		return utils.Error(c, fiber.StatusInternalServerError, "upload failed")
	}

	if err := h.History.SetBackground(groupID, url); err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"backgroundUrl": url})
}

func (h *ImagesHandler) LocationThumbnail(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "image storage unavailable")
	}

	locationID, err := parseID(c.Params("locationId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid location id")
	}

	url, err := h.uploadFormFile(c, "thumbnail", storage.LocationThumbnailKey(locationID))
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return utils.Error(c, fiberErr.Code, fiberErr.Message)
		}
		return utils.Error(c, fiber.StatusInternalServerError, "upload failed")
	}

	result := h.DB.Model(&models.Location{}).Where("id = ?", locationID).Update("thumbnail", url)
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving thumbnail")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "location not found")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"thumbnailUrl": url})
}
