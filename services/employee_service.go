package services

import (
	"context"
	"errors"
	"strings"

	"github.com/tailorworks/tailorshop-api/models"
	"gorm.io/gorm"
)

// EmployeeInput is the data for a new employee account
type EmployeeInput struct {
	FullName      string
	Email         string
	EmailVerified bool // Auth0 vouches for Email; required to claim a pre-created account
	Phone         string
	Role          string
	Auth0ID       string
}

// UpdateEmployeeInput holds employee edits; nil means unchanged
type UpdateEmployeeInput struct {
	FullName *string
	Email    *string
	Phone    *string
	Role     *string
	Active   *bool
}

// EmployeeService manages employee accounts and their roles
type EmployeeService struct {
	db    *gorm.DB
	audit AuditSink
}

// NewEmployeeService creates an employee registry over db
func NewEmployeeService(db *gorm.DB, audit AuditSink) *EmployeeService {
	return &EmployeeService{db: db, audit: audit}
}

// ListEmployees returns every employee account, active or not, by name
func (s *EmployeeService) ListEmployees(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := requireElevated(actor, "Only admins and managers can list employees"); err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Order("full_name ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, Internal("Failed to fetch employees", err)
	}
	return users, nil
}

// GetEmployee returns an employee by ID
func (s *EmployeeService) GetEmployee(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError(err, "USER_NOT_FOUND", "Employee not found")
	}
	return &user, nil
}

// FindByAuth0ID resolves a token subject to an employee account
func (s *EmployeeService) FindByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		return nil, lookupError(err, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
	}
	return &user, nil
}

// CreateEmployee adds an employee account. Only admins may do this.
func (s *EmployeeService) CreateEmployee(ctx context.Context, actor *models.User, input EmployeeInput) (*models.User, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, Forbidden("Only admins can create employees")
	}

	user, err := s.insert(ctx, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionCreateEmployee,
		Actor:      actor,
		EntityType: "User",
		EntityID:   user.ID,
		NewValue:   user,
	})
	return user, nil
}

// UpdateEmployee edits an employee account. Only admins may do this.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, actor *models.User, id uint, input UpdateEmployeeInput) (*models.User, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, Forbidden("Only admins can edit employees")
	}

	before, err := s.GetEmployee(ctx, id)
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
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, Invalid("VALIDATION_ERROR", "Email cannot be empty")
		}
		if email != before.Email {
			if err := s.checkEmail(ctx, email, id); err != nil {
				return nil, err
			}
		}
		updates["email"] = email
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		if !models.IsValidRole(*input.Role) {
			return nil, Invalid("INVALID_ROLE", "Role must be one of "+strings.Join(models.Roles, ", "))
		}
		updates["role"] = *input.Role
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, Internal("Failed to update employee", err)
		}
	}

	after, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionUpdateEmployee,
		Actor:      actor,
		EntityType: "User",
		EntityID:   id,
		OldValue:   before,
		NewValue:   after,
	})
	return after, nil
}

// Provision creates or claims the profile for an authenticated Auth0 subject.
// An account pre-created by an admin with the same email and no Auth0 ID is linked
// instead of duplicated, but only when Auth0 has verified that email.
func (s *EmployeeService) Provision(ctx context.Context, input EmployeeInput) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Unscoped().Model(&models.User{}).Where("auth0_id = ?", input.Auth0ID).Count(&count).Error; err != nil {
		return nil, Internal("Failed to check user", err)
	}
	if count > 0 {
		return nil, Conflict("USER_EXISTS", "A user with this Auth0 ID or email already exists")
	}

	email := normalizeEmail(input.Email)
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Auth0ID != nil && *existing.Auth0ID != "" {
			return nil, Conflict("USER_EXISTS", "A user with this Auth0 ID or email already exists")
		}
		if !input.EmailVerified {
			return nil, &Error{Kind: KindForbidden, Code: "EMAIL_NOT_VERIFIED", Message: "Verify your email address before claiming this account"}
		}
		if err := db.Model(&existing).Update("auth0_id", input.Auth0ID).Error; err != nil {
			return nil, Internal("Failed to link user", err)
		}
		return s.GetEmployee(ctx, existing.ID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, Internal("Failed to check user", err)
	}

	if input.Role == "" {
		input.Role = models.RoleTailor
	}
	return s.insert(ctx, input)
}

// UpdateProfile lets an employee change their own name, email and phone
func (s *EmployeeService) UpdateProfile(ctx context.Context, user *models.User, fullName, email, phone string) (*models.User, error) {
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(fullName); name != "" {
		updates["full_name"] = name
	}
	if email = normalizeEmail(email); email != "" && email != user.Email {
		if err := s.checkEmail(ctx, email, user.ID); err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		updates["phone"] = phone
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, Internal("Failed to update user profile", err)
		}
	}
	return s.GetEmployee(ctx, user.ID)
}

// SeedAdmin creates the first admin account. It does nothing when an admin already exists.
func (s *EmployeeService) SeedAdmin(ctx context.Context, input EmployeeInput) (*models.User, bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return nil, false, Internal("Failed to check admins", err)
	}
	if count > 0 {
		return nil, false, nil
	}

	input.Role = models.RoleAdmin
	user, err := s.insert(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *EmployeeService) insert(ctx context.Context, input EmployeeInput) (*models.User, error) {
	name := strings.TrimSpace(input.FullName)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, Invalid("VALIDATION_ERROR", "Full name is required")
	}
	if email == "" {
		return nil, Invalid("VALIDATION_ERROR", "Email is required")
	}
	if !models.IsValidRole(input.Role) {
		return nil, Invalid("INVALID_ROLE", "Role must be one of "+strings.Join(models.Roles, ", "))
	}
	if err := s.checkEmail(ctx, email, 0); err != nil {
		return nil, err
	}

	user := models.User{
		FullName: name,
		Email:    email,
		Phone:    strings.TrimSpace(input.Phone),
		Role:     input.Role,
		Active:   true,
	}
	if id := strings.TrimSpace(input.Auth0ID); id != "" {
		user.Auth0ID = &id
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, Internal("Failed to create employee", err)
	}
	return &user, nil
}

// checkEmail includes soft-deleted accounts since the unique index still covers them
func (s *EmployeeService) checkEmail(ctx context.Context, email string, exceptID uint) error {
	query := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return Internal("Failed to check email", err)
	}
	if count > 0 {
		return Conflict("EMAIL_EXISTS", "A user with this email already exists")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
