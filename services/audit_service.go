package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/tailorworks/tailorshop-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit action types
const (
	ActionCreateOrder       = "CREATE_ORDER"
	ActionUpdateOrder       = "UPDATE_ORDER"
	ActionUpdateOrderStatus = "UPDATE_ORDER_STATUS"
	ActionAssignOrder       = "ASSIGN_ORDER"
	ActionDeleteOrder       = "DELETE_ORDER"
	ActionUploadOrderImage  = "UPLOAD_ORDER_IMAGE"
	ActionUpdatePayment     = "UPDATE_PAYMENT"
	ActionDeletePayment     = "DELETE_PAYMENT"
	ActionCreateCustomer    = "CREATE_CUSTOMER"
	ActionUpdateCustomer    = "UPDATE_CUSTOMER"
	ActionDeleteCustomer    = "DELETE_CUSTOMER"
	ActionCreateMeasurement = "CREATE_MEASUREMENT"
	ActionUpdateMeasurement = "UPDATE_MEASUREMENT"
	ActionCreateEmployee    = "CREATE_EMPLOYEE"
	ActionUpdateEmployee    = "UPDATE_EMPLOYEE"
)

// AuditEntry describes one mutation to record
type AuditEntry struct {
	ActionType string
	Actor      *models.User
	EntityType string
	EntityID   uint
	OldValue   interface{}
	NewValue   interface{}
}

// AuditSink records mutations. Implementations must not fail the caller.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry)
}

// DBAuditSink writes audit entries to the audit_logs table
type DBAuditSink struct {
	db *gorm.DB
}

// NewDBAuditSink creates an audit sink backed by db
func NewDBAuditSink(db *gorm.DB) *DBAuditSink {
	return &DBAuditSink{db: db}
}

// Record stores the entry; failures are logged and dropped
func (s *DBAuditSink) Record(ctx context.Context, entry AuditEntry) {
	record := models.AuditLog{
		ActionType: entry.ActionType,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		OldValue:   toJSON(entry.OldValue),
		NewValue:   toJSON(entry.NewValue),
		Timestamp:  time.Now(),
	}
	if entry.Actor != nil {
		record.UserID = &entry.Actor.ID
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		log.Printf("warning: failed to write audit log %s %s/%d: %v", entry.ActionType, entry.EntityType, entry.EntityID, err)
	}
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("warning: failed to encode audit value: %v", err)
		return nil
	}
	return datatypes.JSON(raw)
}

// actorID returns a pointer to the actor's ID, or nil for system actions
func actorID(actor *models.User) *uint {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}
