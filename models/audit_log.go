package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records who changed what. Writes are best effort.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ActionType string         `gorm:"not null;index" json:"action_type"`
	UserID     *uint          `gorm:"index" json:"user_id,omitempty"`
	EntityType string         `gorm:"not null" json:"entity_type"`
	EntityID   uint           `gorm:"index" json:"entity_id"`
	OldValue   datatypes.JSON `json:"old_value,omitempty"`
	NewValue   datatypes.JSON `json:"new_value,omitempty"`
	Timestamp  time.Time      `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
