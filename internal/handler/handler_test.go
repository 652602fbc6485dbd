package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/middleware"
	"github.com/Maderside/PropertyManagementSystem/internal/model"
	"github.com/Maderside/PropertyManagementSystem/pkg/database"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testPassword = "password123"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// newContext builds an echo context around an httptest request, optionally
// with a JSON body
func newContext(t *testing.T, e *echo.Echo, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// asUser injects the user the auth middleware would have loaded
func asUser(c echo.Context, user model.User) {
	c.Set(middleware.CurrentUserKey, user)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	var body []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func createUser(t *testing.T, db *gorm.DB, name string, role model.Role) model.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := model.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createProperty(t *testing.T, db *gorm.DB, landlordID uint, name string) model.RentalProperty {
	property := model.RentalProperty{
		Name:       name,
		Location:   "123 Test Street",
		LandlordID: landlordID,
	}
	if err := db.Create(&property).Error; err != nil {
		t.Fatalf("failed to create property: %v", err)
	}
	return property
}

func createTenancy(t *testing.T, db *gorm.DB, tenantID, propertyID uint) model.Tenancy {
	tenancy := model.Tenancy{
		TenantID:   tenantID,
		PropertyID: propertyID,
		LeaseStart: time.Now().UTC(),
	}
	if err := db.Create(&tenancy).Error; err != nil {
		t.Fatalf("failed to create tenancy: %v", err)
	}
	return tenancy
}

func createTransaction(t *testing.T, db *gorm.DB, propertyID uint, visible bool) model.Transaction {
	transaction := model.Transaction{
		PropertyID:         propertyID,
		Type:               "rent",
		Amount:             1200.50,
		DueDate:            time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		PayeeRole:          model.RoleLandlord,
		IsVisibleToTenants: visible,
	}
	if err := db.Create(&transaction).Error; err != nil {
		t.Fatalf("failed to create transaction: %v", err)
	}
	return transaction
}

func createTenantRequest(t *testing.T, db *gorm.DB, tenantID, propertyID uint, title string) model.TenantRequest {
	request := model.TenantRequest{
		TenantID:    tenantID,
		PropertyID:  propertyID,
		Title:       title,
		Description: "needs attention",
		RequestDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to create tenant request: %v", err)
	}
	return request
}
