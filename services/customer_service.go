package services

import (
	"context"
	"strings"

	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/utils"
	"gorm.io/gorm"
)

// CustomerInput is the editable data of a customer
type CustomerInput struct {
	FullName string
	Phone    string
	Address  string
	Notes    string
}

// UpdateCustomerInput holds customer edits; nil means unchanged
type UpdateCustomerInput struct {
	FullName *string
	Phone    *string
	Address  *string
	Notes    *string
}

// CustomerService manages the customer registry
type CustomerService struct {
	db    *gorm.DB
	audit AuditSink
}

// NewCustomerService creates a customer registry over db
func NewCustomerService(db *gorm.DB, audit AuditSink) *CustomerService {
	return &CustomerService{db: db, audit: audit}
}

// ListCustomers returns a page of active customers, newest first.
// search matches name or phone, case-insensitively.
func (s *CustomerService) ListCustomers(ctx context.Context, search string, page utils.Pagination) ([]models.Customer, int64, error) {
	search = strings.ToLower(strings.TrimSpace(search))
	scope := func(query *gorm.DB) *gorm.DB {
		if search != "" {
			like := "%" + search + "%"
			query = query.Where("LOWER(full_name) LIKE ? OR LOWER(phone) LIKE ?", like, like)
		}
		return query
	}

	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Customer{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, Internal("Failed to count customers", err)
	}

	var customers []models.Customer
	if err := db.Scopes(scope).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&customers).Error; err != nil {
		return nil, 0, Internal("Failed to fetch customers", err)
	}

	return customers, total, nil
}

// GetCustomer returns an active customer
func (s *CustomerService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, lookupError(err, "CUSTOMER_NOT_FOUND", "Customer not found")
	}
	return &customer, nil
}

// CreateCustomer registers a customer. The phone must not belong to another active customer.
func (s *CustomerService) CreateCustomer(ctx context.Context, actor *models.User, input CustomerInput) (*models.Customer, error) {
	if err := requireElevated(actor, "Only admins and managers can create customers"); err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(input.FullName)
	phone := strings.TrimSpace(input.Phone)
	if fullName == "" {
		return nil, Invalid("VALIDATION_ERROR", "Full name is required")
	}
	if phone == "" {
		return nil, Invalid("VALIDATION_ERROR", "Phone is required")
	}
	if err := s.checkPhone(ctx, phone, 0); err != nil {
		return nil, err
	}

	customer := models.Customer{
		FullName:  fullName,
		Phone:     phone,
		Address:   strings.TrimSpace(input.Address),
		Notes:     input.Notes,
		CreatedBy: actorID(actor),
	}
	if err := s.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, Internal("Failed to create customer", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionCreateCustomer,
		Actor:      actor,
		EntityType: "Customer",
		EntityID:   customer.ID,
		NewValue:   customer,
	})

	return &customer, nil
}

// UpdateCustomer edits a customer, re-checking phone uniqueness when it changes
func (s *CustomerService) UpdateCustomer(ctx context.Context, actor *models.User, id uint, input UpdateCustomerInput) (*models.Customer, error) {
	if err := requireElevated(actor, "Only admins and managers can edit customers"); err != nil {
		return nil, err
	}

	before, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, Invalid("VALIDATION_ERROR", "Full name cannot be empty")
		}
		updates["full_name"] = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			return nil, Invalid("VALIDATION_ERROR", "Phone cannot be empty")
		}
		if phone != before.Phone {
			if err := s.checkPhone(ctx, phone, id); err != nil {
				return nil, err
			}
		}
		updates["phone"] = phone
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, Internal("Failed to update customer", err)
		}
	}

	after, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionUpdateCustomer,
		Actor:      actor,
		EntityType: "Customer",
		EntityID:   id,
		OldValue:   before,
		NewValue:   after,
	})

	return after, nil
}

// DeleteCustomer soft-deletes a customer. While the customer has open orders only an
// admin may delete, and only with force set.
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor *models.User, id uint, force bool) error {
	if err := requireElevated(actor, "Only admins and managers can delete customers"); err != nil {
		return err
	}

	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	var open int64
	if err := db.Model(&models.Order{}).
		Where("customer_id = ? AND status NOT IN ?", id, []string{models.StatusDelivered, models.StatusCancelled}).
		Count(&open).Error; err != nil {
		return Internal("Failed to count customer orders", err)
	}

	if open > 0 {
		if actor.Role != models.RoleAdmin {
			return Invalid("CUSTOMER_HAS_ACTIVE_ORDERS", "Customer has active orders and can only be deleted by an admin")
		}
		if !force {
			return Invalid("CONFIRMATION_REQUIRED", "Customer has active orders; repeat with force=true to delete")
		}
	}

	if err := db.Delete(customer).Error; err != nil {
		return Internal("Failed to delete customer", err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionDeleteCustomer,
		Actor:      actor,
		EntityType: "Customer",
		EntityID:   id,
		OldValue:   customer,
	})
	return nil
}

func (s *CustomerService) checkPhone(ctx context.Context, phone string, exceptID uint) error {
	query := s.db.WithContext(ctx).Model(&models.Customer{}).Where("phone = ?", phone)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return Internal("Failed to check phone", err)
	}
	if count > 0 {
		return Invalid("PHONE_EXISTS", "A customer with this phone number already exists")
	}
	return nil
}
