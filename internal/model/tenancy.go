package model

import (
	"time"
)

// Tenancy links a tenant to a property they occupy. The composite unique
// index backstops the duplicate check in the attach flow; detaching deletes
// the row outright, so inactive tenancies never collide with it.
type Tenancy struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	TenantID   uint       `json:"tenant_id" gorm:"not null;uniqueIndex:idx_tenancy_tenant_property"`
	PropertyID uint       `json:"property_id" gorm:"not null;uniqueIndex:idx_tenancy_tenant_property"`
	LeaseStart time.Time  `json:"lease_start" gorm:"not null"`
	LeaseEnd   *time.Time `json:"lease_end,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
