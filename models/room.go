package models

import (
	"gorm.io/gorm"
)

type Room struct {
	gorm.Model

	RoomTypeID *uint  `json:"roomTypeId,omitempty" gorm:"column:room_type_id"`
	RoomNumber string `json:"roomNumber" gorm:"column:room_number;uniqueIndex;type:varchar(50)"`
	Building   string `json:"building" gorm:"column:building;type:varchar(10)"`

	Active       bool   `json:"active" gorm:"column:active;default:true"`
	DisplayOrder int    `json:"displayOrder" gorm:"column:display_order;default:0"`
	Description  string `json:"description" gorm:"type:text"`

	RoomType RoomType `gorm:"foreignKey:RoomTypeID" json:"roomType,omitempty"`
}
