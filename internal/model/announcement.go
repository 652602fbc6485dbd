package model

import (
	"time"
)

// Announcement is a landlord notice attached to a property
type Announcement struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PropertyID uint      `json:"property_id" gorm:"index;not null"`
	Title      string    `json:"title" gorm:"type:varchar(255);not null"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
}
