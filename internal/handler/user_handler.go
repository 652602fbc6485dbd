package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/model"
	"github.com/Maderside/PropertyManagementSystem/pkg/jwtutil"
	"github.com/Maderside/PropertyManagementSystem/pkg/logger"
	"github.com/Maderside/PropertyManagementSystem/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler serves registration, login, and profile operations
type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// Register creates a new user account. Role is fixed at creation and must
// be one of the two allowed values.
func (h *UserHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data", zap.String("email", req.Email))
		prometheus.RecordError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}

	role := model.Role(req.Role)
	if !role.Valid() {
		log.Error("Invalid role in registration", zap.String("role", req.Role))
		prometheus.RecordError("invalid_role")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be landlord or tenant"})
	}

	// Check if the email is already registered
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	if result := h.db.Where("email = ?", req.Email).First(&existing); result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email is already registered"})
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     role,
	}

	if result := h.db.Create(&user); result.Error != nil {
		// The unique email index backstops the check above when two
		// registrations race
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			log.Error("User already exists", zap.String("email", req.Email))
			prometheus.RecordError("email_already_exists")
			return c.JSON(http.StatusConflict, echo.Map{"error": "email is already registered"})
		}
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.Uint("id", user.ID))

	return c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and issues a bearer token
func (h *UserHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := h.db.Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, string(user.Role))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Profile returns the authenticated user's own record
func (h *UserHandler) Profile(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	return c.JSON(http.StatusOK, user)
}

// RegenerateInviteCode replaces the caller's invite code with a fresh one.
// Only the user themself can do this.
func (h *UserHandler) RegenerateInviteCode(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("user", "regenerate_invite_code")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}

	code, err := generateInviteCode()
	if err != nil {
		log.Error("Failed to generate invite code", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate invite code"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Model(&model.User{}).Where("id = ?", user.ID).Update("invite_code", code); result.Error != nil {
		log.Error("Failed to update invite code", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update invite code"})
	}

	log.Info("Invite code regenerated", zap.Uint("user_id", user.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "invite code regenerated successfully",
		"invite_code": code,
	})
}

// TenantsForProperty lists the tenants joined to a property through
// tenancies
func (h *UserHandler) TenantsForProperty(c echo.Context) error {
	log := logger.FromContext(c)

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenants []model.User
	err = h.db.
		Joins("JOIN tenancies ON tenancies.tenant_id = users.id").
		Where("tenancies.property_id = ? AND users.role = ?", propertyID, model.RoleTenant).
		Find(&tenants).Error
	if err != nil {
		log.Error("Failed to list tenants for property", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, tenants)
}
