package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/routes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// It fails the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	RequireTestEnvironment(t)
}

// TestConfig is the configuration the suites run with. Auth0 points at a
// domain nothing answers on.
func TestConfig() *config.Config {
	return &config.Config{
		GoEnv:             "test",
		Port:              "8080",
		Auth0Domain:       "test.auth0.com",
		Auth0Audience:     "https://api.test.com",
		AWSRegion:         "us-east-1",
		LogLevel:          "info",
		CORSOrigins:       []string{"*"},
		NumberMaxAttempts: 10,
	}
}

// NewTestDB opens a private in-memory database with the full schema and
// installs it as the application database
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	config.SetDB(db)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// NewAPIRouter returns the production route table behind MockAuth
func NewAPIRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	routes.Register(router.Group("/api/v1"), MockAuth())
	return router
}

// CreateEmployee inserts an active employee whose Auth0 subject is "auth0|"+handle
func CreateEmployee(t *testing.T, db *gorm.DB, handle, fullName, role string) *models.User {
	t.Helper()

	auth0ID := "auth0|" + handle
	user := &models.User{
		Auth0ID:  &auth0ID,
		FullName: fullName,
		Email:    fmt.Sprintf("%s@tailorshop.test", strings.ToLower(handle)),
		Role:     role,
		Active:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// PrintEnvironmentInfo prints the current test environment configuration
func PrintEnvironmentInfo() {
	fmt.Printf("Test Environment Info:\n")
	fmt.Printf("  GO_ENV: %s\n", os.Getenv("GO_ENV"))
	fmt.Printf("  DATABASE_URL: %s\n", maskDatabaseURL(os.Getenv("DATABASE_URL")))
	fmt.Printf("  AWS_S3_BUCKET: %s\n", os.Getenv("AWS_S3_BUCKET"))
}

// maskDatabaseURL hides credentials and flags URLs that do not name a test database
func maskDatabaseURL(url string) string {
	if url == "" {
		return "(not set)"
	}
	masked := url
	if at := strings.LastIndex(url, "@"); at >= 0 {
		if scheme := strings.Index(url, "://"); scheme >= 0 && scheme < at {
			masked = url[:scheme+3] + "***" + url[at:]
		}
	}
	if !strings.Contains(url, "test") {
		masked += " [WARNING: may not be test DB]"
	}
	return masked
}
