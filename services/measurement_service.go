package services

import (
	"context"
	"strings"

	"github.com/tailorworks/tailorshop-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MeasurementInput is one set of measurements for a garment type
type MeasurementInput struct {
	CustomerID  uint
	GarmentType string
	Values      map[string]float64
	ExtraFields map[string]interface{}
	IsDefault   bool
}

// MeasurementService manages the versioned measurement registry
type MeasurementService struct {
	db    *gorm.DB
	audit AuditSink
}

// NewMeasurementService creates a measurement registry over db
func NewMeasurementService(db *gorm.DB, audit AuditSink) *MeasurementService {
	return &MeasurementService{db: db, audit: audit}
}

// CreateMeasurement stores a measurement set for an active customer
func (s *MeasurementService) CreateMeasurement(ctx context.Context, actor *models.User, input MeasurementInput) (*models.Measurement, error) {
	if err := requireElevated(actor, "Only admins and managers can record measurements"); err != nil {
		return nil, err
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, input.CustomerID).Error; err != nil {
		return nil, lookupError(err, "CUSTOMER_NOT_FOUND", "Customer not found")
	}

	measurement, err := s.insert(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionCreateMeasurement,
		Actor:      actor,
		EntityType: "Measurement",
		EntityID:   measurement.ID,
		NewValue:   measurement,
	})
	return measurement, nil
}

// ListMeasurementsForCustomer returns every version for a customer, newest first
func (s *MeasurementService) ListMeasurementsForCustomer(ctx context.Context, customerID uint) ([]models.Measurement, error) {
	var measurements []models.Measurement
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&measurements).Error; err != nil {
		return nil, Internal("Failed to fetch measurements", err)
	}
	return measurements, nil
}

// UpdateMeasurement records a new version derived from an existing one.
// The existing row is left as it was.
func (s *MeasurementService) UpdateMeasurement(ctx context.Context, actor *models.User, id uint, input MeasurementInput) (*models.Measurement, error) {
	if err := requireElevated(actor, "Only admins and managers can record measurements"); err != nil {
		return nil, err
	}

	var previous models.Measurement
	if err := s.db.WithContext(ctx).First(&previous, id).Error; err != nil {
		return nil, lookupError(err, "MEASUREMENT_NOT_FOUND", "Measurement not found")
	}

	input.CustomerID = previous.CustomerID
	if strings.TrimSpace(input.GarmentType) == "" {
		input.GarmentType = previous.GarmentType
	}

	measurement, err := s.insert(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		ActionType: ActionUpdateMeasurement,
		Actor:      actor,
		EntityType: "Measurement",
		EntityID:   measurement.ID,
		OldValue:   previous,
		NewValue:   measurement,
	})
	return measurement, nil
}

func (s *MeasurementService) insert(ctx context.Context, actor *models.User, input MeasurementInput) (*models.Measurement, error) {
	garment := strings.TrimSpace(input.GarmentType)
	if garment == "" {
		return nil, Invalid("VALIDATION_ERROR", "Garment type is required")
	}

	measurement := models.Measurement{
		CustomerID:  input.CustomerID,
		GarmentType: garment,
		IsDefault:   input.IsDefault,
		CreatedBy:   actorID(actor),
	}
	for field, value := range input.Values {
		if value < 0 {
			return nil, Invalid("INVALID_MEASUREMENT", "Measurement "+field+" cannot be negative")
		}
		if !measurement.Set(field, value) {
			return nil, Invalid("INVALID_MEASUREMENT", "Unknown measurement field "+field)
		}
	}
	if len(input.ExtraFields) > 0 {
		measurement.ExtraFields = datatypes.JSONMap(input.ExtraFields)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if measurement.IsDefault {
			if err := tx.Model(&models.Measurement{}).
				Where("customer_id = ? AND garment_type = ? AND is_default = ?", measurement.CustomerID, garment, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&measurement).Error
	})
	if err != nil {
		return nil, Internal("Failed to save measurement", err)
	}
	return &measurement, nil
}
