package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MessageTemplate is raw SMS text with {{variable}} placeholders.
type MessageTemplate struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Key      string `gorm:"column:key;size:100;uniqueIndex" json:"key"`
	Name     string `gorm:"column:name;size:200" json:"name"`
	Content  string `gorm:"column:content;type:text" json:"content"`
	Category string `gorm:"column:category;size:50" json:"category,omitempty"`
	Active   bool   `gorm:"column:active;default:true" json:"active"`

	// Variables enumerates the placeholder names the content references.
	Variables datatypes.JSON `gorm:"column:variables" json:"variables,omitempty"`
}

// VariableList returns the declared placeholder names.
func (t *MessageTemplate) VariableList() []string {
	return decodeStringSet(t.Variables)
}
