package model

// RentalProperty represents a rental property owned by a landlord
type RentalProperty struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"type:varchar(255);not null"`
	Location    string  `json:"location" gorm:"type:varchar(255);not null"`
	Description *string `json:"description,omitempty" gorm:"type:text"`
	LandlordID  uint    `json:"landlord_id" gorm:"index;not null"`
}
