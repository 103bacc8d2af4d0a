package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/middleware"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// A second pooled connection would open a second, empty :memory: database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// setupMockAuth0Server creates a mock HTTP server that simulates Auth0's /userinfo endpoint
func setupMockAuth0Server(userInfoMap map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if len(authHeader) < 7 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		userInfo, exists := userInfoMap[authHeader[7:]]
		if !exists {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	}))
}

// mockAuthMiddleware sets up the context exactly as the real EnsureValidToken middleware does
func mockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, auth0ID)
		c.Set(middleware.ContextAccessToken, accessToken)
		c.Set(middleware.ContextClaims, &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     &middleware.CustomClaims{Role: role},
		})
		c.Next()
	}
}

// asEmployee chains mock auth and CurrentUser in front of handlers
func asEmployee(auth0ID string, handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{mockAuthMiddleware(auth0ID, "", "mock-token"), middleware.CurrentUser()}
	return append(chain, handlers...)
}

func createTestUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	auth0ID := "auth0|" + name
	user := &models.User{Auth0ID: &auth0ID, FullName: name, Email: name + "@tailor.test", Role: role, Active: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestCustomer(t *testing.T, db *gorm.DB, name, phone string) *models.Customer {
	t.Helper()
	customer := &models.Customer{FullName: name, Phone: phone}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func createTestOrder(t *testing.T, db *gorm.DB, actor *models.User, customer *models.Customer, mutate func(*services.CreateOrderInput)) *models.Order {
	t.Helper()
	input := services.CreateOrderInput{
		CustomerID:          customer.ID,
		GarmentType:         "Kaftan",
		MeasurementSnapshot: map[string]interface{}{"chest": 100},
		DeliveryDate:        time.Now().AddDate(0, 0, 7),
		PriceTotal:          decimal.RequireFromString("150"),
	}
	if mutate != nil {
		mutate(&input)
	}
	order, err := services.NewOrderService(db, services.NewDBAuditSink(db)).CreateOrder(context.Background(), actor, input)
	require.NoError(t, err)
	return order
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	response := decodeResponse(t, w)
	errorData, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "Response body: %s", w.Body.String())
	return errorData["code"].(string)
}
