package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Maderside/PropertyManagementSystem/internal/handler"
	"github.com/Maderside/PropertyManagementSystem/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestCreateProperty(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)

	c, rec := newContext(t, e, http.MethodPost, "/add-property", map[string]interface{}{
		"name":     "flat",
		"location": "5 High Street",
	})
	asUser(c, landlord)
	assert.NoError(t, h.CreateProperty(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var property model.RentalProperty
	assert.NoError(t, db.First(&property).Error)
	// The owner always comes from the authenticated identity
	assert.Equal(t, landlord.ID, property.LandlordID)
}

func TestCreatePropertyTenantForbidden(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	tenant := createUser(t, db, "tenant", model.RoleTenant)

	c, rec := newContext(t, e, http.MethodPost, "/add-property", map[string]interface{}{
		"name":     "flat",
		"location": "5 High Street",
	})
	asUser(c, tenant)
	assert.NoError(t, h.CreateProperty(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "only landlords can add properties", decodeBody(t, rec)["error"])
}

func TestListPropertiesByRole(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)
	other := createUser(t, db, "other", model.RoleLandlord)
	tenant := createUser(t, db, "tenant", model.RoleTenant)
	mine := createProperty(t, db, landlord.ID, "flat")
	createProperty(t, db, other.ID, "house")
	createTenancy(t, db, tenant.ID, mine.ID)

	// Landlords see the properties they own
	c, rec := newContext(t, e, http.MethodGet, "/rental-properties", nil)
	asUser(c, landlord)
	assert.NoError(t, h.ListProperties(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	properties := decodeList(t, rec)
	assert.Len(t, properties, 1)
	assert.Equal(t, "flat", properties[0]["name"])

	// Tenants see the properties they occupy
	c, rec = newContext(t, e, http.MethodGet, "/rental-properties", nil)
	asUser(c, tenant)
	assert.NoError(t, h.ListProperties(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	properties = decodeList(t, rec)
	assert.Len(t, properties, 1)
	assert.Equal(t, "flat", properties[0]["name"])

	// No tenancies still answers 200 with an empty list
	c, rec = newContext(t, e, http.MethodGet, "/rental-properties", nil)
	asUser(c, createUser(t, db, "newcomer", model.RoleTenant))
	assert.NoError(t, h.ListProperties(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 0)
}

func TestDeletePropertyNotOwned(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)
	other := createUser(t, db, "other", model.RoleLandlord)
	property := createProperty(t, db, other.ID, "house")

	c, rec := newContext(t, e, http.MethodDelete, "/delete-property/"+fmt.Sprint(property.ID), nil)
	c.SetParamNames("property_id")
	c.SetParamValues(fmt.Sprint(property.ID))
	asUser(c, landlord)
	assert.NoError(t, h.DeleteProperty(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "property not found or does not belong to you", decodeBody(t, rec)["error"])
}

func addTenantContext(t *testing.T, e *echo.Echo, propertyID uint, code string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newContext(t, e, http.MethodPost, fmt.Sprintf("/add-tenant-to-property/%d/%s", propertyID, code), nil)
	c.SetParamNames("property_id", "code")
	c.SetParamValues(fmt.Sprint(propertyID), code)
	return c, rec
}

func TestAddTenantByInviteCode(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)
	tenant := createUser(t, db, "tenant", model.RoleTenant)
	code := "abc123XYZ0"
	assert.NoError(t, db.Model(&tenant).Update("invite_code", code).Error)
	property := createProperty(t, db, landlord.ID, "flat")

	c, rec := addTenantContext(t, e, property.ID, code)
	asUser(c, landlord)
	assert.NoError(t, h.AddTenant(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tenant.Email, decodeBody(t, rec)["email"])

	var tenancy model.Tenancy
	assert.NoError(t, db.Where("property_id = ? AND tenant_id = ?", property.ID, tenant.ID).First(&tenancy).Error)

	// Attaching the same tenant again conflicts and leaves one row
	c, rec = addTenantContext(t, e, property.ID, code)
	asUser(c, landlord)
	assert.NoError(t, h.AddTenant(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "tenant is already associated with this property", decodeBody(t, rec)["error"])

	var count int64
	db.Model(&model.Tenancy{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAddTenantByEmail(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)
	tenant := createUser(t, db, "tenant", model.RoleTenant)
	property := createProperty(t, db, landlord.ID, "flat")

	// The same path slot accepts the tenant's email
	c, rec := addTenantContext(t, e, property.ID, tenant.Email)
	asUser(c, landlord)
	assert.NoError(t, h.AddTenant(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddTenantRejectsLandlordTarget(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)
	otherLandlord := createUser(t, db, "other", model.RoleLandlord)
	property := createProperty(t, db, landlord.ID, "flat")

	// Only users with the tenant role can be attached
	c, rec := addTenantContext(t, e, property.ID, otherLandlord.Email)
	asUser(c, landlord)
	assert.NoError(t, h.AddTenant(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "tenant with the given invite code not found or invalid role", decodeBody(t, rec)["error"])
}

func TestAddTenantUnknownCode(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)
	property := createProperty(t, db, landlord.ID, "flat")

	c, rec := addTenantContext(t, e, property.ID, "nosuchcode")
	asUser(c, landlord)
	assert.NoError(t, h.AddTenant(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveTenant(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)
	tenant := createUser(t, db, "tenant", model.RoleTenant)
	property := createProperty(t, db, landlord.ID, "flat")
	createTenancy(t, db, tenant.ID, property.ID)

	c, rec := newContext(t, e, http.MethodDelete, fmt.Sprintf("/remove-tenant-from-property/%d/%d", property.ID, tenant.ID), nil)
	c.SetParamNames("property_id", "tenant_id")
	c.SetParamValues(fmt.Sprint(property.ID), fmt.Sprint(tenant.ID))
	asUser(c, landlord)
	assert.NoError(t, h.RemoveTenant(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&model.Tenancy{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// Removing again reports the missing tenancy
	c, rec = newContext(t, e, http.MethodDelete, fmt.Sprintf("/remove-tenant-from-property/%d/%d", property.ID, tenant.ID), nil)
	c.SetParamNames("property_id", "tenant_id")
	c.SetParamValues(fmt.Sprint(property.ID), fmt.Sprint(tenant.ID))
	asUser(c, landlord)
	assert.NoError(t, h.RemoveTenant(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "tenant is not associated with this property", decodeBody(t, rec)["error"])
}

func TestLeaveProperty(t *testing.T) {
	db := setupTestDB(t)
	h := handler.NewPropertyHandler(db)
	e := echo.New()
	landlord := createUser(t, db, "landlord", model.RoleLandlord)
	tenant := createUser(t, db, "tenant", model.RoleTenant)
	property := createProperty(t, db, landlord.ID, "flat")
	createTenancy(t, db, tenant.ID, property.ID)

	c, rec := newContext(t, e, http.MethodDelete, "/leave-property/"+fmt.Sprint(property.ID), nil)
	c.SetParamNames("property_id")
	c.SetParamValues(fmt.Sprint(property.ID))
	asUser(c, tenant)
	assert.NoError(t, h.LeaveProperty(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&model.Tenancy{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// Landlords cannot use the tenant-only route
	c, rec = newContext(t, e, http.MethodDelete, "/leave-property/"+fmt.Sprint(property.ID), nil)
	c.SetParamNames("property_id")
	c.SetParamValues(fmt.Sprint(property.ID))
	asUser(c, landlord)
	assert.NoError(t, h.LeaveProperty(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
