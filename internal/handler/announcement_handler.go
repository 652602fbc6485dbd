package handler

import (
	"net/http"
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/model"
	"github.com/Maderside/PropertyManagementSystem/pkg/logger"
	"github.com/Maderside/PropertyManagementSystem/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnnouncementHandler serves property announcement operations
type AnnouncementHandler struct {
	db *gorm.DB
}

func NewAnnouncementHandler(db *gorm.DB) *AnnouncementHandler {
	return &AnnouncementHandler{db: db}
}

type announcementRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ListAnnouncements returns the announcements of a property. A property
// with none yields 404, indistinguishable from an absent property.
func (h *AnnouncementHandler) ListAnnouncements(c echo.Context) error {
	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var announcements []model.Announcement
	if err := h.db.Where("property_id = ?", propertyID).Find(&announcements).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(announcements) == 0 {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "announcements not found"})
	}

	return c.JSON(http.StatusOK, announcements)
}

// CreateAnnouncement adds an announcement to a property owned by the
// calling landlord
func (h *AnnouncementHandler) CreateAnnouncement(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("announcement", "create")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can add announcements"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	if _, err := ownedProperty(h.db, propertyID, user.ID); err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found or does not belong to you"})
	}

	var req announcementRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	announcement := model.Announcement{
		PropertyID: propertyID,
		Title:      req.Title,
		Message:    req.Message,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&announcement); result.Error != nil {
		log.Error("Failed to create announcement", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create announcement"})
	}

	log.Info("Announcement created",
		zap.Uint("id", announcement.ID),
		zap.Uint("property_id", propertyID))

	return c.JSON(http.StatusCreated, announcement)
}

// UpdateAnnouncement modifies an announcement on a property owned by the
// calling landlord
func (h *AnnouncementHandler) UpdateAnnouncement(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("announcement", "update")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can update announcements"})
	}

	announcementID, err := pathID(c, "announcement_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid announcement id"})
	}

	var announcement model.Announcement
	if err := h.db.First(&announcement, announcementID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "announcement not found"})
	}

	if _, err := ownedProperty(h.db, announcement.PropertyID, user.ID); err != nil {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to update this announcement"})
	}

	var req announcementRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	announcement.Title = req.Title
	announcement.Message = req.Message

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&announcement); result.Error != nil {
		log.Error("Failed to update announcement", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update announcement"})
	}

	return c.JSON(http.StatusOK, announcement)
}

// DeleteAnnouncement removes an announcement on a property owned by the
// calling landlord
func (h *AnnouncementHandler) DeleteAnnouncement(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("announcement", "delete")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can delete announcements"})
	}

	announcementID, err := pathID(c, "announcement_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid announcement id"})
	}

	var announcement model.Announcement
	if err := h.db.First(&announcement, announcementID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "announcement not found"})
	}

	if _, err := ownedProperty(h.db, announcement.PropertyID, user.ID); err != nil {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to delete this announcement"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := h.db.Delete(&announcement); result.Error != nil {
		log.Error("Failed to delete announcement", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete announcement"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "announcement deleted successfully"})
}
