package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/model"
	"github.com/Maderside/PropertyManagementSystem/internal/resolution"
	"github.com/Maderside/PropertyManagementSystem/pkg/logger"
	"github.com/Maderside/PropertyManagementSystem/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantRequestHandler serves tenant request and request resolution
// operations
type TenantRequestHandler struct {
	db     *gorm.DB
	ledger *resolution.Ledger[model.RequestResolution]
}

func NewTenantRequestHandler(db *gorm.DB) *TenantRequestHandler {
	return &TenantRequestHandler{
		db:     db,
		ledger: NewRequestLedger(db),
	}
}

type tenantRequestBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RequestDate string `json:"request_date"`
}

// ListRequests returns a property's tenant requests. A property with none
// yields 404, indistinguishable from an absent property.
func (h *TenantRequestHandler) ListRequests(c echo.Context) error {
	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var requests []model.TenantRequest
	if err := h.db.Where("property_id = ?", propertyID).Find(&requests).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(requests) == 0 {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant requests not found"})
	}

	return c.JSON(http.StatusOK, requests)
}

// ListResolutions returns a request's resolutions joined with each user's
// name and role. A request with zero resolutions yields 404.
func (h *TenantRequestHandler) ListResolutions(c echo.Context) error {
	requestID, err := pathID(c, "request_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	entries, err := h.ledger.ListWithUsers(requestID)
	if err != nil {
		if errors.Is(err, resolution.ErrNotFound) {
			prometheus.RecordError("not_found")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request resolutions not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	response := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		response = append(response, echo.Map{
			"resolution_id": e.ResolutionID,
			"request_id":    e.ParentID,
			"user_id":       e.UserID,
			"status":        e.Status,
			"resolved_at":   e.ResolvedAt,
			"user_name":     e.UserName,
			"user_role":     e.UserRole,
		})
	}

	return c.JSON(http.StatusOK, response)
}

// CreateRequest files a tenant request against a property. The authoring
// tenant always comes from the authenticated identity.
func (h *TenantRequestHandler) CreateRequest(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("request", "create")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleTenant {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only tenants can add requests"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	var req tenantRequestBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	requestDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.RequestDate != "" {
		requestDate, err = parseDate(req.RequestDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request_date, expected YYYY-MM-DD"})
		}
	}

	request := model.TenantRequest{
		TenantID:    user.ID,
		PropertyID:  propertyID,
		Title:       req.Title,
		Description: req.Description,
		RequestDate: requestDate,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&request); result.Error != nil {
		log.Error("Failed to create tenant request", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create request"})
	}

	log.Info("Tenant request created",
		zap.Uint("id", request.ID),
		zap.Uint("property_id", propertyID),
		zap.Uint("tenant_id", user.ID))

	return c.JSON(http.StatusCreated, request)
}

// UpdateRequest modifies a tenant request. Only the authoring tenant may
// update it; a request authored by someone else is a permission failure,
// not a missing entity.
func (h *TenantRequestHandler) UpdateRequest(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("request", "update")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleTenant {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only tenants can update requests"})
	}

	requestID, err := pathID(c, "request_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	var request model.TenantRequest
	if err := h.db.First(&request, requestID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant request not found"})
	}
	if request.TenantID != user.ID {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only update your own requests"})
	}

	var req tenantRequestBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	request.Title = req.Title
	request.Description = req.Description
	if req.RequestDate != "" {
		requestDate, err := parseDate(req.RequestDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request_date, expected YYYY-MM-DD"})
		}
		request.RequestDate = requestDate
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&request); result.Error != nil {
		log.Error("Failed to update tenant request", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update request"})
	}

	return c.JSON(http.StatusOK, request)
}

// DeleteRequest removes a tenant request and all of its resolutions in one
// database transaction. Only the authoring tenant may delete it.
func (h *TenantRequestHandler) DeleteRequest(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("request", "delete")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleTenant {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only tenants can delete requests"})
	}

	requestID, err := pathID(c, "request_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	var request model.TenantRequest
	if err := h.db.First(&request, requestID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant request not found"})
	}
	if request.TenantID != user.ID {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only delete your own requests"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := h.ledger.DeleteForParent(tx, requestID); err != nil {
			return err
		}
		return tx.Delete(&request).Error
	})
	if err != nil {
		log.Error("Failed to delete tenant request", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete request"})
	}

	log.Info("Tenant request deleted", zap.Uint("id", requestID))

	return c.JSON(http.StatusOK, echo.Map{"message": "tenant request and its resolutions deleted successfully"})
}

// AddResolution creates a resolution for a user on a tenant request. The
// target user is deliberately not verified here, unlike the transaction
// variant.
func (h *TenantRequestHandler) AddResolution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("request_resolution", "add")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleTenant {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only tenants can add request resolutions"})
	}

	var req struct {
		RequestID uint   `json:"request_id"`
		UserID    uint   `json:"user_id"`
		Status    string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var request model.TenantRequest
	if err := h.db.First(&request, req.RequestID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant request not found"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	resolutionID, err := h.ledger.Add(req.RequestID, req.UserID, resolution.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, resolution.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resolution status"})
		case errors.Is(err, resolution.ErrAlreadyExists):
			prometheus.RecordError("conflict")
			return c.JSON(http.StatusConflict, echo.Map{"error": "resolution already exists for this request and user"})
		default:
			log.Error("Failed to add request resolution", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add resolution"})
		}
	}

	log.Info("Request resolution added",
		zap.Uint("request_id", req.RequestID),
		zap.Uint("user_id", req.UserID),
		zap.Uint("resolution_id", resolutionID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "request resolution added successfully",
		"resolution_id": resolutionID,
	})
}

// RemoveResolution deletes the resolution of a user on a tenant request
func (h *TenantRequestHandler) RemoveResolution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("request_resolution", "remove")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleTenant {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only tenants can remove request resolutions"})
	}

	requestID, err := pathID(c, "request_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.ledger.Remove(requestID, userID); err != nil {
		if errors.Is(err, resolution.ErrNotFound) {
			prometheus.RecordError("not_found")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request resolution not found"})
		}
		log.Error("Failed to remove request resolution", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove resolution"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "request resolution removed successfully"})
}

// ToggleResolution flips the caller's own resolution on a tenant request
// between pending and resolved
func (h *TenantRequestHandler) ToggleResolution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("request_resolution", "toggle")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}

	requestID, err := pathID(c, "request_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	var request model.TenantRequest
	if err := h.db.First(&request, requestID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant request not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	status, resolutionID, err := h.ledger.Toggle(requestID, user.ID)
	if err != nil {
		if errors.Is(err, resolution.ErrNotFound) {
			prometheus.RecordError("not_found")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resolution not found for this request and user"})
		}
		log.Error("Failed to toggle request resolution", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update resolution"})
	}

	log.Info("Request resolution toggled",
		zap.Uint("request_id", requestID),
		zap.Uint("user_id", user.ID),
		zap.String("status", string(status)))

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "request resolution updated to " + string(status),
		"resolution_id": resolutionID,
	})
}
