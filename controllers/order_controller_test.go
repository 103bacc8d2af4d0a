package controllers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailorworks/tailorshop-api/middleware"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/services"
	"github.com/tailorworks/tailorshop-api/utils"
	"gorm.io/gorm"
)

type orderTestEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	manager  *models.User
	tailor   *models.User
	other    *models.User
	cashier  *models.User
	customer *models.Customer
}

// setupOrderTest registers the order routes once per employee so tests can pick the caller by path prefix
func setupOrderTest(t *testing.T) *orderTestEnv {
	env := &orderTestEnv{db: setupTestDB(t)}
	env.manager = createTestUser(t, env.db, "manager", models.RoleManager)
	env.tailor = createTestUser(t, env.db, "tailor", models.RoleTailor)
	env.other = createTestUser(t, env.db, "other", models.RoleTailor)
	env.cashier = createTestUser(t, env.db, "cashier", models.RoleCashier)
	env.customer = createTestCustomer(t, env.db, "Abena Ofori", "+233201234567")

	env.router = setupTestRouter()
	for _, user := range []*models.User{env.manager, env.tailor, env.other, env.cashier} {
		g := env.router.Group("/" + user.FullName)
		g.Use(mockAuthMiddleware(*user.Auth0ID, "", "mock-token"), middleware.CurrentUser())
		g.POST("/orders", CreateOrder)
		g.GET("/orders", ListOrders)
		g.GET("/orders/:id", GetOrder)
		g.PUT("/orders/:id", UpdateOrder)
		g.PUT("/orders/:id/status", UpdateOrderStatus)
		g.PUT("/orders/:id/assign", AssignOrder)
		g.DELETE("/orders/:id", DeleteOrder)
		g.POST("/orders/:id/image", UploadOrderImage)
	}
	return env
}

func (env *orderTestEnv) validOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"customer_id":          env.customer.ID,
		"garment_type":         "Suit",
		"fabric_type":          "Wool",
		"measurement_snapshot": map[string]interface{}{"chest": 98, "waist": "84"},
		"delivery_date":        time.Now().AddDate(0, 0, 5).Format(utils.DateLayout),
		"price_total":          "200.00",
		"discount":             25,
	}
}

func TestCreateOrder(t *testing.T) {
	env := setupOrderTest(t)

	tests := []struct {
		name           string
		caller         string
		mutate         func(body map[string]interface{})
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, data map[string]interface{})
	}{
		{
			name:           "Manager creates order",
			caller:         "manager",
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, data map[string]interface{}) {
				assert.Regexp(t, `^ORD-\d{8}-\d{4}$`, data["order_number"])
				assert.Equal(t, models.StatusPending, data["status"])
				assert.Equal(t, models.PaymentUnpaid, data["payment_status"])
				assert.Equal(t, "175", data["final_total"])
				assert.Equal(t, models.PriorityMedium, data["priority"])
				snapshot := data["measurement_snapshot"].(map[string]interface{})
				assert.Equal(t, float64(84), snapshot["waist"])
				assert.Equal(t, "Suit", snapshot["garment_type"])
			},
		},
		{
			name:   "Pre-assigned order starts assigned",
			caller: "manager",
			mutate: func(body map[string]interface{}) {
				body["assigned_to_id"] = env.tailor.ID
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, data map[string]interface{}) {
				assert.Equal(t, models.StatusAssigned, data["status"])
			},
		},
		{
			name:           "Tailor cannot create",
			caller:         "tailor",
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
		{
			name:           "Missing price",
			caller:         "manager",
			mutate:         func(body map[string]interface{}) { delete(body, "price_total") },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "Unparseable delivery date",
			caller:         "manager",
			mutate:         func(body map[string]interface{}) { body["delivery_date"] = "next tuesday" },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_DELIVERY_DATE",
		},
		{
			name:   "Delivery date in the past",
			caller: "manager",
			mutate: func(body map[string]interface{}) {
				body["delivery_date"] = time.Now().AddDate(0, 0, -1).Format(utils.DateLayout)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_DELIVERY_DATE",
		},
		{
			name:           "No measurements",
			caller:         "manager",
			mutate:         func(body map[string]interface{}) { delete(body, "measurement_snapshot") },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "MEASUREMENT_REQUIRED",
		},
		{
			name:           "Negative discount",
			caller:         "manager",
			mutate:         func(body map[string]interface{}) { body["discount"] = "-5" },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_DISCOUNT",
		},
		{
			name:           "Unknown customer",
			caller:         "manager",
			mutate:         func(body map[string]interface{}) { body["customer_id"] = 9999 },
			expectedStatus: http.StatusNotFound,
			expectedError:  "CUSTOMER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := env.validOrderBody()
			if tt.mutate != nil {
				tt.mutate(body)
			}

			w := performRequest(env.router, http.MethodPost, "/"+tt.caller+"/orders", body)
			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())

			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, w))
				return
			}
			response := decodeResponse(t, w)
			assert.True(t, response["success"].(bool))
			tt.checkResponse(t, response["data"].(map[string]interface{}))
		})
	}
}

func TestListOrders_TailorScopedAndPaginated(t *testing.T) {
	env := setupOrderTest(t)
	for i := 0; i < 3; i++ {
		createTestOrder(t, env.db, env.manager, env.customer, func(in *services.CreateOrderInput) {
			in.AssignedToID = &env.tailor.ID
		})
	}
	createTestOrder(t, env.db, env.manager, env.customer, nil)

	tests := []struct {
		name          string
		path          string
		expectedCount int
		expectedTotal float64
	}{
		{"Manager sees every order", "/manager/orders", 4, 4},
		{"Tailor sees assigned orders", "/tailor/orders", 3, 3},
		{"Other tailor sees nothing", "/other/orders", 0, 0},
		{"Status filter", "/manager/orders?status=Pending", 1, 1},
		{"Assignee filter", fmt.Sprintf("/manager/orders?assigned_to=%d", env.tailor.ID), 3, 3},
		{"Second page", "/manager/orders?page=2&limit=3", 1, 4},
		{"Payment status filter", "/manager/orders?payment_status=Paid", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(env.router, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

			response := decodeResponse(t, w)
			assert.Len(t, response["data"].([]interface{}), tt.expectedCount)
			pagination := response["pagination"].(map[string]interface{})
			assert.Equal(t, tt.expectedTotal, pagination["total"])
		})
	}

	w := performRequest(env.router, http.MethodGet, "/manager/orders?status=Shipped", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATUS", errorCode(t, w))

	w = performRequest(env.router, http.MethodGet, "/manager/orders?date_from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DATE", errorCode(t, w))
}

func TestGetOrder(t *testing.T) {
	env := setupOrderTest(t)
	order := createTestOrder(t, env.db, env.manager, env.customer, func(in *services.CreateOrderInput) {
		in.AssignedToID = &env.tailor.ID
	})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedError  string
	}{
		{"Manager reads any order", fmt.Sprintf("/manager/orders/%d", order.ID), http.StatusOK, ""},
		{"Assigned tailor reads order", fmt.Sprintf("/tailor/orders/%d", order.ID), http.StatusOK, ""},
		{"Other tailor is forbidden", fmt.Sprintf("/other/orders/%d", order.ID), http.StatusForbidden, "FORBIDDEN"},
		{"Unknown order", "/manager/orders/9999", http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"Invalid ID", "/manager/orders/abc", http.StatusBadRequest, "INVALID_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(env.router, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, w))
				return
			}
			data := decodeResponse(t, w)["data"].(map[string]interface{})
			assert.Equal(t, order.OrderNumber, data["order_number"])
			assert.NotEmpty(t, data["status_history"])
		})
	}
}

func TestUpdateOrderStatus_Workflow(t *testing.T) {
	env := setupOrderTest(t)
	order := createTestOrder(t, env.db, env.manager, env.customer, func(in *services.CreateOrderInput) {
		in.AssignedToID = &env.tailor.ID
	})
	path := fmt.Sprintf("/orders/%d/status", order.ID)

	steps := []struct {
		name           string
		caller         string
		status         string
		note           string
		expectedStatus int
		expectedError  string
	}{
		{"Other tailor cannot touch", "other", models.StatusInProgress, "", http.StatusForbidden, "FORBIDDEN"},
		{"Cashier cannot change status", "cashier", models.StatusInProgress, "", http.StatusForbidden, "FORBIDDEN"},
		{"Skipping a step is rejected", "tailor", models.StatusReady, "", http.StatusBadRequest, "INVALID_TRANSITION"},
		{"Tailor starts work", "tailor", models.StatusInProgress, "Cutting fabric", http.StatusOK, ""},
		{"Tailor cannot cancel", "tailor", models.StatusCancelled, "", http.StatusBadRequest, "INVALID_TRANSITION"},
		{"Tailor marks ready", "tailor", models.StatusReady, "", http.StatusOK, ""},
		{"Manager delivers", "manager", models.StatusDelivered, "Collected", http.StatusOK, ""},
		{"Delivered is terminal", "manager", models.StatusCancelled, "", http.StatusBadRequest, "INVALID_TRANSITION"},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			w := performRequest(env.router, http.MethodPut, "/"+step.caller+path, map[string]interface{}{
				"status": step.status,
				"note":   step.note,
			})
			assert.Equal(t, step.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if step.expectedError != "" {
				assert.Equal(t, step.expectedError, errorCode(t, w))
				return
			}
			data := decodeResponse(t, w)["data"].(map[string]interface{})
			assert.Equal(t, step.status, data["status"])
		})
	}

	var stored models.Order
	require.NoError(t, env.db.Preload("StatusHistory").Preload("ProgressNotes").First(&stored, order.ID).Error)
	assert.NotNil(t, stored.DeliveredAt)
	assert.Len(t, stored.StatusHistory, 4, "Assigned, InProgress, Ready, Delivered")
	assert.Len(t, stored.ProgressNotes, 2)

	w := performRequest(env.router, http.MethodPut, "/manager"+path, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestUpdateOrder_RecomputesTotals(t *testing.T) {
	env := setupOrderTest(t)
	order := createTestOrder(t, env.db, env.manager, env.customer, nil)
	path := fmt.Sprintf("/manager/orders/%d", order.ID)

	w := performRequest(env.router, http.MethodPut, path, map[string]interface{}{
		"price_total": "300",
		"discount":    "50",
		"priority":    models.PriorityHigh,
		"color":       "Emerald",
	})
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "250", data["final_total"])
	assert.Equal(t, models.PriorityHigh, data["priority"])
	assert.Equal(t, "Emerald", data["color"])

	w = performRequest(env.router, http.MethodPut, path, map[string]interface{}{"priority": "Urgent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PRIORITY", errorCode(t, w))

	w = performRequest(env.router, http.MethodPut, fmt.Sprintf("/tailor/orders/%d", order.ID), map[string]interface{}{"color": "Red"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAssignOrder(t *testing.T) {
	env := setupOrderTest(t)
	order := createTestOrder(t, env.db, env.manager, env.customer, nil)
	path := fmt.Sprintf("/orders/%d/assign", order.ID)

	w := performRequest(env.router, http.MethodPut, "/manager"+path, map[string]interface{}{"employee_id": env.tailor.ID})
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, models.StatusAssigned, data["status"])
	assert.Equal(t, float64(env.tailor.ID), data["assigned_to_id"])

	w = performRequest(env.router, http.MethodPut, "/manager"+path, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = performRequest(env.router, http.MethodPut, "/tailor"+path, map[string]interface{}{"employee_id": env.tailor.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteOrder(t *testing.T) {
	env := setupOrderTest(t)
	order := createTestOrder(t, env.db, env.manager, env.customer, nil)
	path := fmt.Sprintf("/manager/orders/%d", order.ID)

	w := performRequest(env.router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	w = performRequest(env.router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(env.router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func imageUploadRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadOrderImage(t *testing.T) {
	env := setupOrderTest(t)
	order := createTestOrder(t, env.db, env.manager, env.customer, nil)
	path := fmt.Sprintf("/manager/orders/%d/image", order.ID)

	store := services.NewMockObjectStore()
	services.SetImageService(services.NewImageService(store))
	t.Cleanup(func() { services.SetImageService(nil) })

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, imageUploadRequest(t, path, "style.png", pngBytes))
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	firstKey := data["image_s3_key"].(string)
	assert.True(t, strings.HasPrefix(firstKey, "orders/"+order.OrderNumber+"/"))
	assert.Contains(t, data["image_url"], firstKey)
	assert.True(t, store.Exists(firstKey))

	// A second upload replaces and removes the first image
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, imageUploadRequest(t, path, "style-v2.png", pngBytes))
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	secondKey := decodeResponse(t, w)["data"].(map[string]interface{})["image_s3_key"].(string)
	assert.NotEqual(t, firstKey, secondKey)
	assert.False(t, store.Exists(firstKey))
	assert.Equal(t, []string{secondKey}, store.Keys())

	w = performRequest(env.router, http.MethodGet, fmt.Sprintf("/manager/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeResponse(t, w)["data"].(map[string]interface{})["image_url"], secondKey)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, imageUploadRequest(t, path, "style.jpg", pngBytes))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_FORMAT", errorCode(t, w))

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, imageUploadRequest(t, path, "fake.png", []byte("plain text, not an image")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_FORMAT", errorCode(t, w))

	w = performRequest(env.router, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_FILE", errorCode(t, w))
}

func TestUploadOrderImage_StorageDisabled(t *testing.T) {
	env := setupOrderTest(t)
	order := createTestOrder(t, env.db, env.manager, env.customer, nil)
	services.SetImageService(nil)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, imageUploadRequest(t, fmt.Sprintf("/manager/orders/%d/image", order.ID), "style.png", pngBytes))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "IMAGE_STORAGE_DISABLED", errorCode(t, w))
}
