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

// ResponsibilityHandler serves maintenance responsibility operations
type ResponsibilityHandler struct {
	db *gorm.DB
}

func NewResponsibilityHandler(db *gorm.DB) *ResponsibilityHandler {
	return &ResponsibilityHandler{db: db}
}

type responsibilityRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     string  `json:"due_date"`
}

// ListResponsibilities returns the responsibilities of a property. A
// property with none yields 404, indistinguishable from an absent property.
func (h *ResponsibilityHandler) ListResponsibilities(c echo.Context) error {
	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var responsibilities []model.Responsibility
	if err := h.db.Where("property_id = ?", propertyID).Find(&responsibilities).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(responsibilities) == 0 {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "responsibilities not found"})
	}

	return c.JSON(http.StatusOK, responsibilities)
}

// CreateResponsibility adds a responsibility to a property owned by the
// calling landlord
func (h *ResponsibilityHandler) CreateResponsibility(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("responsibility", "create")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can add responsibilities"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	if _, err := ownedProperty(h.db, propertyID, user.ID); err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found or does not belong to you"})
	}

	var req responsibilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	responsibility := model.Responsibility{
		PropertyID:  propertyID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid due_date, expected YYYY-MM-DD"})
		}
		responsibility.DueDate = &due
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&responsibility); result.Error != nil {
		log.Error("Failed to create responsibility", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create responsibility"})
	}

	log.Info("Responsibility created",
		zap.Uint("id", responsibility.ID),
		zap.Uint("property_id", propertyID))

	return c.JSON(http.StatusCreated, responsibility)
}

// UpdateResponsibility modifies a responsibility on a property owned by
// the calling landlord
func (h *ResponsibilityHandler) UpdateResponsibility(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("responsibility", "update")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can update responsibilities"})
	}

	responsibilityID, err := pathID(c, "responsibility_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid responsibility id"})
	}

	var responsibility model.Responsibility
	if err := h.db.First(&responsibility, responsibilityID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "responsibility not found"})
	}

	// Found but not owned is a permission failure, not a missing entity
	if _, err := ownedProperty(h.db, responsibility.PropertyID, user.ID); err != nil {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to update this responsibility"})
	}

	var req responsibilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	responsibility.Title = req.Title
	responsibility.Description = req.Description
	responsibility.DueDate = nil
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid due_date, expected YYYY-MM-DD"})
		}
		responsibility.DueDate = &due
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&responsibility); result.Error != nil {
		log.Error("Failed to update responsibility", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update responsibility"})
	}

	return c.JSON(http.StatusOK, responsibility)
}

// DeleteResponsibility removes a responsibility on a property owned by the
// calling landlord
func (h *ResponsibilityHandler) DeleteResponsibility(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("responsibility", "delete")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can delete responsibilities"})
	}

	responsibilityID, err := pathID(c, "responsibility_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid responsibility id"})
	}

	var responsibility model.Responsibility
	if err := h.db.First(&responsibility, responsibilityID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "responsibility not found"})
	}

	if _, err := ownedProperty(h.db, responsibility.PropertyID, user.ID); err != nil {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to delete this responsibility"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := h.db.Delete(&responsibility); result.Error != nil {
		log.Error("Failed to delete responsibility", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete responsibility"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "responsibility deleted successfully"})
}
