package models

import (
	"time"
)

// CampaignLog is the immutable audit record of one dispatch run.
type CampaignLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BatchID string `gorm:"column:batch_id;size:40;index" json:"batchId"`

	Kind        NotificationKind `gorm:"column:kind;size:30" json:"kind"`
	TargetType  string           `gorm:"column:target_type;size:30" json:"targetType"`
	TargetValue string           `gorm:"column:target_value;size:100" json:"targetValue,omitempty"`
	Date        string           `gorm:"column:date;size:10;index" json:"date"`

	TargetCount int `gorm:"column:target_count;default:0" json:"targetCount"`
	SentCount   int `gorm:"column:sent_count;default:0" json:"sentCount"`
	FailedCount int `gorm:"column:failed_count;default:0" json:"failedCount"`

	ErrorMessage string `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`

	SentAt      time.Time  `gorm:"column:sent_at" json:"sentAt"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
}
