package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order statuses
const (
	StatusPending    = "Pending"
	StatusAssigned   = "Assigned"
	StatusInProgress = "InProgress"
	StatusReady      = "Ready"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

// Statuses lists every order status in workflow order
var Statuses = []string{StatusPending, StatusAssigned, StatusInProgress, StatusReady, StatusDelivered, StatusCancelled}

// Order priorities
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Payment statuses. Derived from the payment ledger, never set by clients.
const (
	PaymentUnpaid  = "Unpaid"
	PaymentPartial = "Partial"
	PaymentPaid    = "Paid"
)

// MeasurementSnapshot is the copy of measurements an order was cut from.
// It is written once at creation and never follows later measurement edits.
type MeasurementSnapshot struct {
	GarmentType      string `json:"garment_type,omitempty"`
	BodyMeasurements `gorm:"embedded"`
	ExtraFields      datatypes.JSONMap `json:"extra_fields,omitempty"`
}

// Order is a garment commissioned by a customer
type Order struct {
	ID                  uint                `gorm:"primaryKey" json:"id"`
	OrderNumber         string              `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerID          uint                `gorm:"not null;index" json:"customer_id"`
	Customer            Customer            `gorm:"foreignKey:CustomerID" json:"customer"`
	GarmentType         string              `gorm:"not null" json:"garment_type"`
	FabricType          string              `json:"fabric_type"`
	Color               string              `json:"color"`
	StyleNotes          string              `gorm:"type:text" json:"style_notes"`
	MeasurementID       *uint               `gorm:"index" json:"measurement_id,omitempty"`
	MeasurementSnapshot MeasurementSnapshot `gorm:"embedded;embeddedPrefix:snapshot_" json:"measurement_snapshot"`
	DeliveryDate        time.Time           `gorm:"not null" json:"delivery_date"`
	Status              string              `gorm:"not null;default:'Pending';index" json:"status"`
	Priority            string              `gorm:"not null;default:'Medium'" json:"priority"`
	AssignedToID        *uint               `gorm:"index" json:"assigned_to_id"`
	AssignedTo          *User               `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	PriceTotal          decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price_total"`
	Discount            decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	FinalTotal          decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"final_total"`        // max(price_total - discount, 0)
	PaymentStatus       string              `gorm:"not null;default:'Unpaid';index" json:"payment_status"` // see services.ComputePaymentStatus
	StatusHistory       []OrderStatusEvent  `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`
	ProgressNotes       []OrderProgressNote `gorm:"foreignKey:OrderID" json:"progress_notes,omitempty"`
	Payments            []Payment           `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	DeliveredAt         *time.Time          `gorm:"index" json:"delivered_at"`
	ImageS3Key          *string             `json:"image_s3_key,omitempty"`
	ImageURL            *string             `gorm:"-" json:"image_url,omitempty"` // presigned, computed on read
	CreatedByID         *uint               `json:"created_by_id,omitempty"`
	CreatedAt           time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	DeletedAt           gorm.DeletedAt      `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsValidStatus reports whether status is a known order status
func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether priority is a known order priority
func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// OrderStatusEvent is one entry of an order's status history. Rows are only ever inserted.
type OrderStatusEvent struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	OrderID uint      `gorm:"not null;index" json:"order_id"`
	Status  string    `gorm:"not null" json:"status"`
	Note    string    `json:"note,omitempty"`
	UserID  *uint     `json:"user_id,omitempty"`
	At      time.Time `gorm:"not null" json:"at"`
}

// TableName specifies the table name for the OrderStatusEvent model
func (OrderStatusEvent) TableName() string {
	return "order_status_events"
}

// OrderProgressNote is a note attached while moving an order through the workflow
type OrderProgressNote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Note      string    `gorm:"type:text;not null" json:"note"`
	UserID    *uint     `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderProgressNote model
func (OrderProgressNote) TableName() string {
	return "order_progress_notes"
}
