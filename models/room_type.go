package models

import (
	"time"

	"gorm.io/gorm"
)

// RoomType carries the capacity table used when the feed reports a single
// raw unit: a single-unit booking of this type defaults to MaxGuests people.
type RoomType struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TypeName    string `json:"typeName"`
	Description string `json:"description"`
	MaxGuests   int    `json:"maxGuests"`

	// ExternalItemID is the booking feed's item identifier for this type.
	ExternalItemID string `gorm:"column:external_item_id;size:50;index" json:"externalItemId,omitempty"`

	// DormGender is set for dormitory types segregated by gender ("F"/"M");
	// guests booking such a type inherit it.
	DormGender string `gorm:"column:dorm_gender;size:5" json:"dormGender,omitempty"`

	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
