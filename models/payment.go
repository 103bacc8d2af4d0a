package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment methods accepted at the counter
const (
	MethodCash        = "Cash"
	MethodMobileMoney = "Mobile Money"
	MethodBank        = "Bank"
)

// PaymentMethods lists every accepted payment method
var PaymentMethods = []string{MethodCash, MethodMobileMoney, MethodBank}

// Payment is a receipt recorded against an order. Reversal is a soft delete.
type Payment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderID        uint            `gorm:"not null;index" json:"order_id"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	Method         string          `gorm:"not null" json:"method"`
	TransactionRef string          `json:"transaction_ref,omitempty"`
	PaidAt         time.Time       `gorm:"not null" json:"paid_at"`
	ReceivedByID   *uint           `json:"received_by_id,omitempty"`
	ReceiptNumber  string          `gorm:"uniqueIndex;not null" json:"receipt_number"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// IsValidPaymentMethod reports whether method is accepted
func IsValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
