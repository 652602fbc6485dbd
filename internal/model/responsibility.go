package model

import (
	"time"
)

// Responsibility is a maintenance duty attached to a property
type Responsibility struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	PropertyID  uint       `json:"property_id" gorm:"index;not null"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Description *string    `json:"description,omitempty" gorm:"type:text"`
	DueDate     *time.Time `json:"due_date,omitempty" gorm:"type:date"`
	CreatedAt   time.Time  `json:"created_at"`
}
