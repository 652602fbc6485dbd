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

// TransactionHandler serves transaction and transaction resolution
// operations
type TransactionHandler struct {
	db     *gorm.DB
	ledger *resolution.Ledger[model.TransactionResolution]
}

func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{
		db:     db,
		ledger: NewTransactionLedger(db),
	}
}

type transactionRequest struct {
	Type               string  `json:"type"`
	Amount             float64 `json:"amount"`
	DueDate            string  `json:"due_date"`
	PayeeRole          string  `json:"payee_role"`
	IsVisibleToTenants *bool   `json:"is_visible_to_tenants"`
}

// ListTransactions returns a property's transactions. Tenants only see
// rows visible to tenants; landlords see everything. Zero matching rows
// yields 404.
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := h.db.Where("property_id = ?", propertyID)
	if user.Role == model.RoleTenant {
		query = query.Where("is_visible_to_tenants = ?", true)
	}

	var transactions []model.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(transactions) == 0 {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transactions not found"})
	}

	return c.JSON(http.StatusOK, transactions)
}

// AllResolvedTransactions returns every transaction across the landlord's
// properties that has at least one resolution and all of them resolved.
// Transactions with zero resolutions are excluded.
func (h *TransactionHandler) AllResolvedTransactions(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can view all transactions for their properties"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var propertyIDs []uint
	if err := h.db.Model(&model.RentalProperty{}).Where("landlord_id = ?", user.ID).Pluck("id", &propertyIDs).Error; err != nil {
		log.Error("Failed to list landlord properties", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if len(propertyIDs) == 0 {
		return c.JSON(http.StatusOK, []model.Transaction{})
	}

	var transactions []model.Transaction
	if err := h.db.Where("property_id IN ?", propertyIDs).Find(&transactions).Error; err != nil {
		log.Error("Failed to list transactions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resolved := make([]model.Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		done, err := h.ledger.FullyResolved(transaction.ID)
		if err != nil {
			log.Error("Failed to check resolutions", zap.Uint("transaction_id", transaction.ID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if done {
			resolved = append(resolved, transaction)
		}
	}

	return c.JSON(http.StatusOK, resolved)
}

// ListResolutions returns a transaction's resolutions joined with each
// user's name and role. A transaction with zero resolutions yields 404.
func (h *TransactionHandler) ListResolutions(c echo.Context) error {
	transactionID, err := pathID(c, "transaction_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	entries, err := h.ledger.ListWithUsers(transactionID)
	if err != nil {
		if errors.Is(err, resolution.ErrNotFound) {
			prometheus.RecordError("not_found")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction resolutions not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	response := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		response = append(response, echo.Map{
			"resolution_id":  e.ResolutionID,
			"transaction_id": e.ParentID,
			"user_id":        e.UserID,
			"status":         e.Status,
			"resolved_at":    e.ResolvedAt,
			"user_name":      e.UserName,
			"user_role":      e.UserRole,
		})
	}

	return c.JSON(http.StatusOK, response)
}

// CreateTransaction adds a transaction to a property owned by the calling
// landlord
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("transaction", "create")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can create transactions for properties"})
	}

	propertyID, err := pathID(c, "property_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}

	if _, err := ownedProperty(h.db, propertyID, user.ID); err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found or does not belong to you"})
	}

	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	payeeRole := model.Role(req.PayeeRole)
	if !payeeRole.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payee_role must be landlord or tenant"})
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid due_date, expected YYYY-MM-DD"})
	}

	visible := true
	if req.IsVisibleToTenants != nil {
		visible = *req.IsVisibleToTenants
	}

	transaction := model.Transaction{
		PropertyID:         propertyID,
		Type:               req.Type,
		Amount:             req.Amount,
		DueDate:            dueDate,
		PayeeRole:          payeeRole,
		IsVisibleToTenants: visible,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&transaction); result.Error != nil {
		log.Error("Failed to create transaction", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create transaction"})
	}

	log.Info("Transaction created",
		zap.Uint("id", transaction.ID),
		zap.Uint("property_id", propertyID),
		zap.Float64("amount", transaction.Amount))

	return c.JSON(http.StatusCreated, transaction)
}

// UpdateTransaction modifies a transaction on a property owned by the
// calling landlord
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("transaction", "update")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can update transactions"})
	}

	transactionID, err := pathID(c, "transaction_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}

	var transaction model.Transaction
	if err := h.db.First(&transaction, transactionID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
	}

	if _, err := ownedProperty(h.db, transaction.PropertyID, user.ID); err != nil {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to update this transaction"})
	}

	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	payeeRole := model.Role(req.PayeeRole)
	if !payeeRole.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payee_role must be landlord or tenant"})
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid due_date, expected YYYY-MM-DD"})
	}

	visible := true
	if req.IsVisibleToTenants != nil {
		visible = *req.IsVisibleToTenants
	}

	transaction.Type = req.Type
	transaction.Amount = req.Amount
	transaction.DueDate = dueDate
	transaction.PayeeRole = payeeRole
	transaction.IsVisibleToTenants = visible

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&transaction); result.Error != nil {
		log.Error("Failed to update transaction", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update transaction"})
	}

	return c.JSON(http.StatusOK, transaction)
}

// DeleteTransaction removes a transaction and all of its resolutions in
// one database transaction
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("transaction", "delete")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can delete transactions"})
	}

	transactionID, err := pathID(c, "transaction_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}

	var transaction model.Transaction
	if err := h.db.First(&transaction, transactionID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
	}

	if _, err := ownedProperty(h.db, transaction.PropertyID, user.ID); err != nil {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to delete this transaction"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := h.ledger.DeleteForParent(tx, transactionID); err != nil {
			return err
		}
		return tx.Delete(&transaction).Error
	})
	if err != nil {
		log.Error("Failed to delete transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete transaction"})
	}

	log.Info("Transaction deleted", zap.Uint("id", transactionID))

	return c.JSON(http.StatusOK, echo.Map{"message": "transaction and its resolutions deleted successfully"})
}

// AddResolution creates a resolution for a user on a transaction
func (h *TransactionHandler) AddResolution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("transaction_resolution", "add")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can add transaction resolutions"})
	}

	var req struct {
		TransactionID uint   `json:"transaction_id"`
		UserID        uint   `json:"user_id"`
		Status        string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var transaction model.Transaction
	if err := h.db.First(&transaction, req.TransactionID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	resolutionID, err := h.ledger.Add(req.TransactionID, req.UserID, resolution.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, resolution.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resolution status"})
		case errors.Is(err, resolution.ErrUserNotFound):
			prometheus.RecordError("not_found")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, resolution.ErrAlreadyExists):
			prometheus.RecordError("conflict")
			return c.JSON(http.StatusConflict, echo.Map{"error": "resolution already exists for this transaction and user"})
		default:
			log.Error("Failed to add transaction resolution", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add resolution"})
		}
	}

	log.Info("Transaction resolution added",
		zap.Uint("transaction_id", req.TransactionID),
		zap.Uint("user_id", req.UserID),
		zap.Uint("resolution_id", resolutionID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "transaction resolution added successfully",
		"resolution_id": resolutionID,
	})
}

// RemoveResolution deletes the resolution of a user on a transaction
func (h *TransactionHandler) RemoveResolution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("transaction_resolution", "remove")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}
	if user.Role != model.RoleLandlord {
		prometheus.RecordError("forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only landlords can remove transaction resolutions"})
	}

	transactionID, err := pathID(c, "transaction_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.ledger.Remove(transactionID, userID); err != nil {
		if errors.Is(err, resolution.ErrNotFound) {
			prometheus.RecordError("not_found")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction resolution not found"})
		}
		log.Error("Failed to remove transaction resolution", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove resolution"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "transaction resolution removed successfully"})
}

// ToggleResolution flips the caller's own resolution on a transaction
// between pending and resolved
func (h *TransactionHandler) ToggleResolution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOperation("transaction_resolution", "toggle")

	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated"})
	}

	transactionID, err := pathID(c, "transaction_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}

	var transaction model.Transaction
	if err := h.db.First(&transaction, transactionID).Error; err != nil {
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	status, resolutionID, err := h.ledger.Toggle(transactionID, user.ID)
	if err != nil {
		if errors.Is(err, resolution.ErrNotFound) {
			prometheus.RecordError("not_found")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resolution not found for this transaction and user"})
		}
		log.Error("Failed to toggle transaction resolution", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update resolution"})
	}

	log.Info("Transaction resolution toggled",
		zap.Uint("transaction_id", transactionID),
		zap.Uint("user_id", user.ID),
		zap.String("status", string(status)))

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "transaction resolution updated to " + string(status),
		"resolution_id": resolutionID,
	})
}
