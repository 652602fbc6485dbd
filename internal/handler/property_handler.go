package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/model"
	"github.com/Maderside/PropertyManagementSystem/pkg/logger"
	"github.com/Maderside/PropertyManagementSystem/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PropertyHandler serves rental property and tenancy operations
type PropertyHandler struct {
	db *gorm.DB
}

func NewPropertyHandler(db *gorm.DB) *PropertyHandler {
	return &PropertyHandler{db: db}
}

// ListProperties returns the caller's properties: owned ones for a
// landlord, occupied ones for a tenant
func (h *PropertyHandler) ListProperties(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var properties []model.RentalProperty
	var err error
	if user.Role == model.RoleLandlord {
		err = h.db.Where("landlord_id = ?", user.ID).Find(&properties).Error
	} else {
		err = h.db.
			Joins("JOIN tenancies ON tenancies.property_id = rental_properties.id").
			Where("tenancies.tenant_id = ?", user.ID).
			Find(&properties).Error
	}
	if err != nil {
		log.Error("Failed to list properties", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, properties)
}

// GetProperty returns a single property by id
func (h *PropertyHandler) GetProperty(c echo.Context) error {
	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	var property model.RentalProperty
	if err := h.db.First(&property, propertyID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}

	return c.JSON(http.StatusOK, property)
}

// CreateProperty adds a property owned by the calling landlord
func (h *PropertyHandler) CreateProperty(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("property", "create")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can add properties"})
	}

	var req struct {
		Name        string  `json:"name"`
		Location    string  `json:"location"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse property request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// The landlord id always comes from the authenticated identity
	property := model.RentalProperty{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		LandlordID:  user.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&property); result.Error != nil {
		log.Error("Failed to create property", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create property"})
	}

	log.Info("Property created",
		zap.Uint("id", property.ID),
		zap.Uint("landlord_id", property.LandlordID))

	return c.JSON(http.StatusCreated, property)
}

// DeleteProperty removes a property owned by the calling landlord
func (h *PropertyHandler) DeleteProperty(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("property", "delete")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can delete properties"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	property, err := ownedProperty(h.db, propertyID, user.ID)
	if err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found or does not belong to you"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := h.db.Delete(&property); result.Error != nil {
		log.Error("Failed to delete property", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete property"})
	}

	log.Info("Property deleted", zap.Uint("id", propertyID))

	return c.JSON(http.StatusOK, echo.Map{"message": "property deleted successfully"})
}

// AddTenant attaches a tenant to a property owned by the calling landlord.
// The code path segment carries either the tenant's invite code or their
// email; both resolve only users with the tenant role.
func (h *PropertyHandler) AddTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("tenancy", "attach")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can add tenants to properties"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	code := c.Param("code")

	if _, err := ownedProperty(h.db, propertyID, user.ID); err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found or does not belong to you"})
	}

	// Resolve the tenant by invite code or email
	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.User
	err = h.db.
		Where("(invite_code = ? OR email = ?) AND role = ?", code, code, model.RoleTenant).
		First(&tenant).Error
	if err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant with the given invite code not found or invalid role"})
	}

	// Check if the tenant is already associated with the property
	var existing model.Tenancy
	err = h.db.Where("property_id = ? AND tenant_id = ?", propertyID, tenant.ID).First(&existing).Error
	if err == nil {
		prometheus.RecordError("conflict")
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant is already associated with this property"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("Failed to check existing tenancy", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tenancy := model.Tenancy{
		TenantID:   tenant.ID,
		PropertyID: propertyID,
		LeaseStart: time.Now().UTC(),
	}
	if result := h.db.Create(&tenancy); result.Error != nil {
		// The unique tenancy index backstops the check above under
		// concurrent attaches
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			prometheus.RecordError("conflict")
			return c.JSON(http.StatusConflict, echo.Map{"error": "tenant is already associated with this property"})
		}
		log.Error("Failed to create tenancy", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add tenant"})
	}

	log.Info("Tenant added to property",
		zap.Uint("property_id", propertyID),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusOK, tenant)
}

// RemoveTenant detaches a tenant from a property owned by the calling
// landlord
func (h *PropertyHandler) RemoveTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("tenancy", "detach")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can remove tenants from properties"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	tenantID, err := pathID(c, "tenant_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant id"})
	}

	if _, err := ownedProperty(h.db, propertyID, user.ID); err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found or does not belong to you"})
	}

	var tenancy model.Tenancy
	if err := h.db.Where("property_id = ? AND tenant_id = ?", propertyID, tenantID).First(&tenancy).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant is not associated with this property"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := h.db.Delete(&tenancy); result.Error != nil {
		log.Error("Failed to delete tenancy", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove tenant"})
	}

	log.Info("Tenant removed from property",
		zap.Uint("property_id", propertyID),
		zap.Uint("tenant_id", tenantID))

	return c.JSON(http.StatusOK, echo.Map{"message": "tenant removed from property successfully"})
}

// LeaveProperty removes the calling tenant's own tenancy
func (h *PropertyHandler) LeaveProperty(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("tenancy", "leave")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleTenant {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only tenants can leave properties"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	var tenancy model.Tenancy
	if err := h.db.Where("property_id = ? AND tenant_id = ?", propertyID, user.ID).First(&tenancy).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "you are not associated with this property"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := h.db.Delete(&tenancy); result.Error != nil {
		log.Error("Failed to delete tenancy", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to leave property"})
	}

	log.Info("Tenant left property",
		zap.Uint("property_id", propertyID),
		zap.Uint("tenant_id", user.ID))

	return c.JSON(http.StatusOK, echo.Map{"message": "you have successfully left the property"})
}
