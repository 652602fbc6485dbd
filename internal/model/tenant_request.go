package model

import (
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/resolution"
)

// TenantRequest is a tenant-submitted request scoped to one property
type TenantRequest struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"index;not null"`
	PropertyID  uint      `json:"property_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	RequestDate time.Time `json:"request_date" gorm:"type:date;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequestResolution tracks one user's acknowledgement of a tenant request
type RequestResolution struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	RequestID  uint              `json:"request_id" gorm:"not null;uniqueIndex:idx_request_resolution_user"`
	UserID     uint              `json:"user_id" gorm:"not null;uniqueIndex:idx_request_resolution_user"`
	Status     resolution.Status `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}
