package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer is a client of the shop
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FullName  string         `gorm:"not null" json:"full_name"`
	Phone     string         `gorm:"not null;index" json:"phone"` // unique among active customers, checked in the service
	Address   string         `json:"address"`
	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedBy *uint          `json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
