package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/models"
	"gorm.io/gorm"
)

const defaultNumberAttempts = 10

// ComputePaymentStatus derives the payment status of an order from its total and the sum paid
func ComputePaymentStatus(finalTotal, paidSum decimal.Decimal) string {
	if paidSum.LessThanOrEqual(decimal.Zero) {
		return models.PaymentUnpaid
	}
	if paidSum.GreaterThanOrEqual(finalTotal) {
		return models.PaymentPaid
	}
	return models.PaymentPartial
}

// FinalizeTotal returns price minus discount, floored at zero
func FinalizeTotal(price, discount decimal.Decimal) decimal.Decimal {
	return decimal.Max(price.Sub(discount), decimal.Zero)
}

// PaymentTotals is the state of an order's ledger after a recalculation
type PaymentTotals struct {
	OrderID       uint            `json:"order_id"`
	FinalTotal    decimal.Decimal `json:"final_total"`
	PaidSum       decimal.Decimal `json:"paid_sum"`
	Remaining     decimal.Decimal `json:"remaining"`
	PaymentStatus string          `json:"payment_status"`
}

// PaymentResult is returned after recording a payment
type PaymentResult struct {
	Payment models.Payment `json:"payment"`
	PaymentTotals
}

// AddPaymentInput is the data needed to record a payment
type AddPaymentInput struct {
	OrderID        uint
	AmountPaid     decimal.Decimal
	Method         string
	TransactionRef string
	PaidAt         *time.Time
}

// PaymentService is the payment ledger. It is the only writer of orders.payment_status.
type PaymentService struct {
	db       *gorm.DB
	audit    AuditSink
	receipts *NumberGenerator
	now      func() time.Time
}

// NewPaymentService creates a payment ledger over db
func NewPaymentService(db *gorm.DB, audit AuditSink) *PaymentService {
	return &PaymentService{
		db:       db,
		audit:    audit,
		receipts: NewReceiptNumberGenerator(numberAttempts()),
		now:      time.Now,
	}
}

// WithReceiptGenerator replaces the receipt number generator (primarily for testing)
func (s *PaymentService) WithReceiptGenerator(g *NumberGenerator) *PaymentService {
	s.receipts = g
	return s
}

// AddPayment records a payment against an active order and recalculates its status
func (s *PaymentService) AddPayment(ctx context.Context, actor *models.User, input AddPaymentInput) (*PaymentResult, error) {
	db := s.db.WithContext(ctx)

	var order models.Order
	if err := db.First(&order, input.OrderID).Error; err != nil {
		return nil, lookupError(err, "ORDER_NOT_FOUND", "Order not found")
	}

	if input.AmountPaid.LessThanOrEqual(decimal.Zero) {
		return nil, Invalid("INVALID_AMOUNT", "Amount must be greater than 0")
	}
	if !models.IsValidPaymentMethod(input.Method) {
		return nil, Invalid("INVALID_METHOD", "Method must be one of "+strings.Join(models.PaymentMethods, ", "))
	}

	receiptNumber, err := s.receipts.Generate(func(number string) (bool, error) {
		var count int64
		err := db.Unscoped().Model(&models.Payment{}).Where("receipt_number = ?", number).Count(&count).Error
		return count > 0, err
	})
	if err != nil {
		return nil, numberError("Failed to generate receipt number", err)
	}

	paidAt := s.now()
	if input.PaidAt != nil && !input.PaidAt.IsZero() {
		paidAt = *input.PaidAt
	}

	payment := models.Payment{
		OrderID:        order.ID,
		AmountPaid:     input.AmountPaid,
		Method:         input.Method,
		TransactionRef: strings.TrimSpace(input.TransactionRef),
		PaidAt:         paidAt,
		ReceivedByID:   actorID(actor),
		ReceiptNumber:  receiptNumber,
	}
	if err := db.Create(&payment).Error; err != nil {
		return nil, Internal("Failed to record payment", err)
	}

	totals, err := s.Recalculate(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionUpdatePayment,
		Actor:      actor,
		EntityType: "Payment",
		EntityID:   payment.ID,
		NewValue:   payment,
	})

	return &PaymentResult{Payment: payment, PaymentTotals: *totals}, nil
}

// ListPaymentsForOrder returns the active payments of an order, newest first.
// Payments stay visible even when their order has been deleted.
func (s *PaymentService) ListPaymentsForOrder(ctx context.Context, orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("paid_at DESC").
		Order("id DESC").
		Find(&payments).Error; err != nil {
		return nil, Internal("Failed to fetch payments", err)
	}
	return payments, nil
}

// DeletePayment reverses a payment by soft-deleting it and recalculates the order
func (s *PaymentService) DeletePayment(ctx context.Context, actor *models.User, paymentID uint) (*PaymentTotals, error) {
	db := s.db.WithContext(ctx)

	var payment models.Payment
	if err := db.First(&payment, paymentID).Error; err != nil {
		return nil, lookupError(err, "PAYMENT_NOT_FOUND", "Payment not found")
	}

	if err := db.Delete(&payment).Error; err != nil {
		return nil, Internal("Failed to delete payment", err)
	}

	totals, err := s.Recalculate(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionDeletePayment,
		Actor:      actor,
		EntityType: "Payment",
		EntityID:   payment.ID,
		OldValue:   payment,
	})

	return totals, nil
}

// Recalculate re-reads every active payment of the order and persists the derived status.
// It never increments a cached total, so concurrent recalculations converge.
func (s *PaymentService) Recalculate(ctx context.Context, orderID uint) (*PaymentTotals, error) {
	db := s.db.WithContext(ctx)

	var order models.Order
	if err := db.Unscoped().First(&order, orderID).Error; err != nil {
		return nil, lookupError(err, "ORDER_NOT_FOUND", "Order not found")
	}

	var payments []models.Payment
	if err := db.Where("order_id = ?", orderID).Find(&payments).Error; err != nil {
		return nil, Internal("Failed to fetch payments", err)
	}

	paidSum := decimal.Zero
	for _, p := range payments {
		paidSum = paidSum.Add(p.AmountPaid)
	}
	status := ComputePaymentStatus(order.FinalTotal, paidSum)

	if err := db.Unscoped().Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", status).Error; err != nil {
		return nil, Internal("Failed to update payment status", err)
	}

	return &PaymentTotals{
		OrderID:       orderID,
		FinalTotal:    order.FinalTotal,
		PaidSum:       paidSum,
		Remaining:     decimal.Max(order.FinalTotal.Sub(paidSum), decimal.Zero),
		PaymentStatus: status,
	}, nil
}

func numberAttempts() int {
	if cfg := config.GetConfig(); cfg != nil && cfg.NumberMaxAttempts > 0 {
		return cfg.NumberMaxAttempts
	}
	return defaultNumberAttempts
}

func numberError(message string, err error) error {
	if errors.Is(err, ErrNumberSpaceExhausted) {
		return &Error{Kind: KindInternal, Code: "NUMBER_EXHAUSTED", Message: message, Err: err}
	}
	return Internal(message, err)
}
