package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tailorworks/tailorshop-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// Every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// recordingSink keeps audit entries in memory
type recordingSink struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (r *recordingSink) Record(ctx context.Context, entry AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingSink) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.ActionType)
	}
	return out
}

// fixedClock returns a clock frozen at t that tests can move forward
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func createEmployee(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	id := "auth0|" + name
	user := &models.User{Auth0ID: &id, FullName: name, Email: name + "@tailor.test", Role: role, Active: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCustomer(t *testing.T, db *gorm.DB, name, phone string) *models.Customer {
	t.Helper()
	customer := &models.Customer{FullName: name, Phone: phone}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func inlineSnapshot() map[string]interface{} {
	return map[string]interface{}{"chest": 98.5, "waist": "84", "sleeve": ""}
}
