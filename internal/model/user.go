package model

import (
	"time"
)

// User represents the user model stored in the database
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	Email      string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password   string    `json:"-" gorm:"type:varchar(255);not null"`
	Role       Role      `json:"role" gorm:"type:varchar(20);not null"`
	InviteCode *string   `json:"invite_code" gorm:"type:varchar(10);uniqueIndex"`
	CreatedAt  time.Time `json:"created_at"`
}
