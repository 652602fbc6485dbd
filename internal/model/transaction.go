package model

import (
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/resolution"
)

// Transaction is a financial entry scoped to one property. Tenants only see
// rows with IsVisibleToTenants set; landlords see everything. The visibility
// default lives in the handlers, not in a column default: a column default
// would override an explicit false, which gorm omits from the insert.
type Transaction struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	PropertyID         uint      `json:"property_id" gorm:"index;not null"`
	Type               string    `json:"type" gorm:"type:varchar(100);not null"`
	Amount             float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	DueDate            time.Time `json:"due_date" gorm:"type:date;not null"`
	PayeeRole          Role      `json:"payee_role" gorm:"type:varchar(20);not null"`
	IsVisibleToTenants bool      `json:"is_visible_to_tenants" gorm:"not null"`
	CreatedAt          time.Time `json:"created_at"`
}

// TransactionResolution tracks one user's acknowledgement of a transaction.
// The composite unique index is the authoritative guard against two adds
// racing the application-level existence check.
type TransactionResolution struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	TransactionID uint              `json:"transaction_id" gorm:"not null;uniqueIndex:idx_transaction_resolution_user"`
	UserID        uint              `json:"user_id" gorm:"not null;uniqueIndex:idx_transaction_resolution_user"`
	Status        resolution.Status `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	ResolvedAt    *time.Time        `json:"resolved_at,omitempty"`
}
