package handler

import (
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/model"
	"github.com/Maderside/PropertyManagementSystem/internal/resolution"

	"gorm.io/gorm"
)

// NewTransactionLedger builds the resolution ledger for transactions. This
// variant verifies that the target user exists before adding a resolution.
func NewTransactionLedger(db *gorm.DB) *resolution.Ledger[model.TransactionResolution] {
	return resolution.New(db, resolution.Config[model.TransactionResolution]{
		Table:        "transaction_resolutions",
		ParentColumn: "transaction_id",
		VerifyUser:   true,
		NewRow: func(parentID, userID uint, status resolution.Status, resolvedAt *time.Time) model.TransactionResolution {
			return model.TransactionResolution{
				TransactionID: parentID,
				UserID:        userID,
				Status:        status,
				ResolvedAt:    resolvedAt,
			}
		},
		RowID: func(r model.TransactionResolution) uint { return r.ID },
		RowState: func(r model.TransactionResolution) (resolution.Status, *time.Time) {
			return r.Status, r.ResolvedAt
		},
	})
}

// NewRequestLedger builds the resolution ledger for tenant requests. Unlike
// the transaction variant it does not verify the target user.
func NewRequestLedger(db *gorm.DB) *resolution.Ledger[model.RequestResolution] {
	return resolution.New(db, resolution.Config[model.RequestResolution]{
		Table:        "request_resolutions",
		ParentColumn: "request_id",
		VerifyUser:   false,
		NewRow: func(parentID, userID uint, status resolution.Status, resolvedAt *time.Time) model.RequestResolution {
			return model.RequestResolution{
				RequestID:  parentID,
				UserID:     userID,
				Status:     status,
				ResolvedAt: resolvedAt,
			}
		},
		RowID: func(r model.RequestResolution) uint { return r.ID },
		RowState: func(r model.RequestResolution) (resolution.Status, *time.Time) {
			return r.Status, r.ResolvedAt
		},
	})
}
