package services

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateOrderInput is the data accepted when opening an order.
// There is no FinalTotal or PaymentStatus input; both are derived.
type CreateOrderInput struct {
	CustomerID          uint
	GarmentType         string
	FabricType          string
	Color               string
	StyleNotes          string
	MeasurementID       *uint
	MeasurementSnapshot map[string]interface{}
	DeliveryDate        time.Time
	Priority            string
	AssignedToID        *uint
	PriceTotal          decimal.Decimal
	Discount            decimal.Decimal
}

// UpdateOrderInput holds the editable non-status fields; nil means unchanged
type UpdateOrderInput struct {
	GarmentType  *string
	FabricType   *string
	Color        *string
	StyleNotes   *string
	DeliveryDate *time.Time
	Priority     *string
	AssignedToID *uint
	PriceTotal   *decimal.Decimal
	Discount     *decimal.Decimal
}

// OrderFilter narrows ListOrders; zero values are ignored
type OrderFilter struct {
	Status        string
	PaymentStatus string
	CustomerID    *uint
	AssignedToID  *uint
	DateFrom      *time.Time
	DateTo        *time.Time
}

// OrderService owns order records and drives the status workflow
type OrderService struct {
	db      *gorm.DB
	audit   AuditSink
	ledger  *PaymentService
	numbers *NumberGenerator
	now     func() time.Time
}

// NewOrderService creates the order workflow over db
func NewOrderService(db *gorm.DB, audit AuditSink) *OrderService {
	return &OrderService{
		db:      db,
		audit:   audit,
		ledger:  NewPaymentService(db, audit),
		numbers: NewOrderNumberGenerator(numberAttempts()),
		now:     time.Now,
	}
}

// WithClock replaces the time source (primarily for testing)
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	s.ledger.now = now
	return s
}

// WithOrderNumberGenerator replaces the order number generator (primarily for testing)
func (s *OrderService) WithOrderNumberGenerator(g *NumberGenerator) *OrderService {
	s.numbers = g
	return s
}

// CreateOrder validates and opens a new order
func (s *OrderService) CreateOrder(ctx context.Context, actor *models.User, input CreateOrderInput) (*models.Order, error) {
	if err := requireElevated(actor, "Only admins and managers can create orders"); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var customer models.Customer
	if err := db.First(&customer, input.CustomerID).Error; err != nil {
		return nil, lookupError(err, "CUSTOMER_NOT_FOUND", "Customer not found")
	}

	if !utils.IsTodayOrLater(input.DeliveryDate, s.now()) {
		return nil, Invalid("INVALID_DELIVERY_DATE", "Delivery date must be today or later")
	}
	if err := validateMoney(input.PriceTotal, input.Discount); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, Invalid("INVALID_PRIORITY", "Priority must be Low, Medium or High")
	}

	var snapshot models.MeasurementSnapshot
	if input.MeasurementID != nil {
		var measurement models.Measurement
		if err := db.First(&measurement, *input.MeasurementID).Error; err != nil {
			return nil, lookupError(err, "MEASUREMENT_NOT_FOUND", "Measurement not found")
		}
		if measurement.CustomerID != customer.ID {
			return nil, Invalid("MEASUREMENT_CUSTOMER_MISMATCH", "Measurement belongs to a different customer")
		}
		snapshot = measurement.Snapshot()
	} else {
		var usable bool
		snapshot, usable = NormalizeSnapshot(input.MeasurementSnapshot)
		if !usable {
			return nil, Invalid("MEASUREMENT_REQUIRED", "Measurement snapshot is required if no measurement set is selected")
		}
	}
	if snapshot.GarmentType == "" {
		snapshot.GarmentType = input.GarmentType
	}

	orderNumber, err := s.numbers.Generate(func(number string) (bool, error) {
		var count int64
		err := db.Unscoped().Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error
		return count > 0, err
	})
	if err != nil {
		return nil, numberError("Failed to generate order number", err)
	}

	status := models.StatusPending
	if input.AssignedToID != nil {
		status = models.StatusAssigned
	}
	finalTotal := FinalizeTotal(input.PriceTotal, input.Discount)
	now := s.now()

	order := models.Order{
		OrderNumber:         orderNumber,
		CustomerID:          customer.ID,
		GarmentType:         input.GarmentType,
		FabricType:          input.FabricType,
		Color:               input.Color,
		StyleNotes:          input.StyleNotes,
		MeasurementID:       input.MeasurementID,
		MeasurementSnapshot: snapshot,
		DeliveryDate:        input.DeliveryDate,
		Status:              status,
		Priority:            priority,
		AssignedToID:        input.AssignedToID,
		PriceTotal:          input.PriceTotal,
		Discount:            input.Discount,
		FinalTotal:          finalTotal,
		PaymentStatus:       ComputePaymentStatus(finalTotal, decimal.Zero),
		CreatedByID:         actorID(actor),
		CreatedAt:           now,
		StatusHistory: []models.OrderStatusEvent{
			{Status: status, UserID: actorID(actor), At: now},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		return nil, Internal("Failed to create order", err)
	}

	created, err := s.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionCreateOrder,
		Actor:      actor,
		EntityType: "Order",
		EntityID:   created.ID,
		NewValue:   created,
	})

	return created, nil
}

// GetOrder returns an active order with its history, notes and payments.
// Tailors may only see orders assigned to them.
func (s *OrderService) GetOrder(ctx context.Context, actor *models.User, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTailorOwnership(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns a page of active orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, actor *models.User, filter OrderFilter, page utils.Pagination) ([]models.Order, int64, error) {
	scope := func(query *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.PaymentStatus != "" {
			query = query.Where("payment_status = ?", filter.PaymentStatus)
		}
		if filter.CustomerID != nil {
			query = query.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.AssignedToID != nil {
			query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
		}
		if filter.DateFrom != nil {
			query = query.Where("created_at >= ?", utils.StartOfDay(*filter.DateFrom))
		}
		if filter.DateTo != nil {
			query = query.Where("created_at <= ?", utils.EndOfDay(*filter.DateTo))
		}
		if actor != nil && actor.Role == models.RoleTailor {
			query = query.Where("assigned_to_id = ?", actor.ID)
		}
		return query
	}

	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Order{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, Internal("Failed to count orders", err)
	}

	var orders []models.Order
	if err := db.Scopes(scope).
		Preload("Customer").
		Preload("AssignedTo").
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&orders).Error; err != nil {
		return nil, 0, Internal("Failed to fetch orders", err)
	}

	return orders, total, nil
}

// UpdateOrder edits non-status fields. Totals and payment status are recomputed afterwards.
func (s *OrderService) UpdateOrder(ctx context.Context, actor *models.User, id uint, input UpdateOrderInput) (*models.Order, error) {
	if err := requireElevated(actor, "Only admins and managers can edit orders"); err != nil {
		return nil, err
	}

	before, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.DeliveryDate != nil && !utils.IsTodayOrLater(*input.DeliveryDate, s.now()) {
		return nil, Invalid("INVALID_DELIVERY_DATE", "Delivery date must be today or later")
	}
	if input.Priority != nil && !models.IsValidPriority(*input.Priority) {
		return nil, Invalid("INVALID_PRIORITY", "Priority must be Low, Medium or High")
	}

	price, discount := before.PriceTotal, before.Discount
	if input.PriceTotal != nil {
		price = *input.PriceTotal
	}
	if input.Discount != nil {
		discount = *input.Discount
	}
	if err := validateMoney(price, discount); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"price_total": price,
		"discount":    discount,
		"final_total": FinalizeTotal(price, discount),
	}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = *value
		}
	}
	setString("garment_type", input.GarmentType)
	setString("fabric_type", input.FabricType)
	setString("color", input.Color)
	setString("style_notes", input.StyleNotes)
	setString("priority", input.Priority)
	if input.DeliveryDate != nil {
		updates["delivery_date"] = *input.DeliveryDate
	}

	var event *models.OrderStatusEvent
	if input.AssignedToID != nil {
		updates["assigned_to_id"] = *input.AssignedToID
		if before.Status == models.StatusPending {
			updates["status"] = models.StatusAssigned
			event = &models.OrderStatusEvent{OrderID: id, Status: models.StatusAssigned, UserID: actorID(actor), At: s.now()}
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if event != nil {
			return tx.Create(event).Error
		}
		return nil
	})
	if err != nil {
		return nil, Internal("Failed to update order", err)
	}

	if _, err := s.ledger.Recalculate(ctx, id); err != nil {
		return nil, err
	}

	after, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionUpdateOrder,
		Actor:      actor,
		EntityType: "Order",
		EntityID:   id,
		OldValue:   before,
		NewValue:   after,
	})

	return after, nil
}

// UpdateOrderStatus moves an order through the workflow.
// Re-saving the current status records no history and never restamps delivered_at;
// a note sent with it is still kept as a progress note.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor *models.User, id uint, status, note string) (*models.Order, error) {
	if actor == nil {
		return nil, Forbidden("Authentication required")
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTailorOwnership(actor, order); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleCashier {
		return nil, Forbidden("Cashiers cannot change order status")
	}

	if !IsValidTransition(order.Status, status, actor.Role) {
		return nil, Invalid("INVALID_TRANSITION", "Invalid status transition from "+order.Status+" to "+status)
	}

	note = strings.TrimSpace(note)
	now := s.now()
	oldStatus := order.Status

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if status != oldStatus {
			updates := map[string]interface{}{"status": status}
			if status == models.StatusDelivered && order.DeliveredAt == nil {
				updates["delivered_at"] = now
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
			event := models.OrderStatusEvent{OrderID: id, Status: status, Note: note, UserID: actorID(actor), At: now}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}
		if note != "" {
			progress := models.OrderProgressNote{OrderID: id, Note: note, UserID: actorID(actor), CreatedAt: now}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, Internal("Failed to update order status", err)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionUpdateOrderStatus,
		Actor:      actor,
		EntityType: "Order",
		EntityID:   id,
		OldValue:   map[string]string{"status": oldStatus},
		NewValue:   map[string]string{"status": status},
	})

	return updated, nil
}

// AssignOrder sets the responsible employee. A pending order becomes assigned.
func (s *OrderService) AssignOrder(ctx context.Context, actor *models.User, id, employeeID uint) (*models.Order, error) {
	if err := requireElevated(actor, "Only admins and managers can assign orders"); err != nil {
		return nil, err
	}

	before, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"assigned_to_id": employeeID}
		if before.Status == models.StatusPending {
			updates["status"] = models.StatusAssigned
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if before.Status == models.StatusPending {
			event := models.OrderStatusEvent{OrderID: id, Status: models.StatusAssigned, UserID: actorID(actor), At: s.now()}
			return tx.Create(&event).Error
		}
		return nil
	})
	if err != nil {
		return nil, Internal("Failed to assign order", err)
	}

	after, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionAssignOrder,
		Actor:      actor,
		EntityType: "Order",
		EntityID:   id,
		OldValue:   before,
		NewValue:   after,
	})

	return after, nil
}

// DeleteOrder hides an order from all listings. Its payments are left untouched.
func (s *OrderService) DeleteOrder(ctx context.Context, actor *models.User, id uint) error {
	if err := requireElevated(actor, "Only admins and managers can delete orders"); err != nil {
		return err
	}

	var order models.Order
	db := s.db.WithContext(ctx)
	if err := db.First(&order, id).Error; err != nil {
		return lookupError(err, "ORDER_NOT_FOUND", "Order not found")
	}
	if err := db.Delete(&order).Error; err != nil {
		return Internal("Failed to delete order", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionDeleteOrder,
		Actor:      actor,
		EntityType: "Order",
		EntityID:   id,
	})
	return nil
}

// SetOrderImage stores a new style image key and returns the key it replaced
func (s *OrderService) SetOrderImage(ctx context.Context, actor *models.User, id uint, key string) (*models.Order, string, error) {
	if err := requireElevated(actor, "Only admins and managers can upload order images"); err != nil {
		return nil, "", err
	}

	before, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	previous := ""
	if before.ImageS3Key != nil {
		previous = *before.ImageS3Key
	}

	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("image_s3_key", key).Error; err != nil {
		return nil, "", Internal("Failed to save order image", err)
	}

	after, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionUploadOrderImage,
		Actor:      actor,
		EntityType: "Order",
		EntityID:   id,
		OldValue:   map[string]string{"image_s3_key": previous},
		NewValue:   map[string]string{"image_s3_key": key},
	})

	return after, previous, nil
}

func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("AssignedTo").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("ProgressNotes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at DESC") }).
		First(&order, id).Error
	if err != nil {
		return nil, lookupError(err, "ORDER_NOT_FOUND", "Order not found")
	}
	return &order, nil
}

// NormalizeSnapshot keeps the known numeric fields of an inline measurement payload
// plus its extra fields. Empty or non-numeric values are dropped. The second result
// reports whether anything usable was left.
func NormalizeSnapshot(payload map[string]interface{}) (models.MeasurementSnapshot, bool) {
	var snapshot models.MeasurementSnapshot
	if payload == nil {
		return snapshot, false
	}

	usable := false
	for _, field := range models.MeasurementFields {
		value, ok := toNumber(payload[field])
		if ok && snapshot.Set(field, value) {
			usable = true
		}
	}

	if extra, ok := payload["extra_fields"].(map[string]interface{}); ok && len(extra) > 0 {
		snapshot.ExtraFields = datatypes.JSONMap(extra)
		usable = true
	}

	return snapshot, usable
}

// toNumber accepts finite numbers and numeric strings; NaN and infinities are dropped
func toNumber(v interface{}) (float64, bool) {
	f, ok := parseNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		n = strings.TrimSpace(n)
		if n == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func validateMoney(price, discount decimal.Decimal) error {
	if price.IsNegative() {
		return Invalid("INVALID_PRICE", "Price total cannot be negative")
	}
	if discount.IsNegative() {
		return Invalid("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	return nil
}

func requireElevated(actor *models.User, message string) error {
	if actor == nil || !actor.IsElevated() {
		return Forbidden(message)
	}
	return nil
}

func checkTailorOwnership(actor *models.User, order *models.Order) error {
	if actor == nil {
		return Forbidden("Authentication required")
	}
	if actor.Role != models.RoleTailor {
		return nil
	}
	if order.AssignedToID == nil || *order.AssignedToID != actor.ID {
		return Forbidden("You do not have permission to access this order")
	}
	return nil
}
