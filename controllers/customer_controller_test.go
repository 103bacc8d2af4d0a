package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tailorworks/tailorshop-api/middleware"
	"github.com/tailorworks/tailorshop-api/models"
)

func TestCustomerEndpoints(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	manager := createTestUser(t, db, "manager", models.RoleManager)
	tailor := createTestUser(t, db, "tailor", models.RoleTailor)

	elevated := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	router := setupTestRouter()
	for _, user := range []*models.User{admin, manager, tailor} {
		g := router.Group("/"+user.FullName, mockAuthMiddleware(*user.Auth0ID, "", "mock-token"), middleware.CurrentUser())
		g.GET("/customers", ListCustomers)
		g.GET("/customers/:id", GetCustomer)
		g.POST("/customers", elevated, CreateCustomer)
		g.PUT("/customers/:id", elevated, UpdateCustomer)
		g.DELETE("/customers/:id", elevated, DeleteCustomer)
	}

	w := performRequest(router, http.MethodPost, "/manager/customers", map[string]interface{}{
		"full_name": "Esi Mensah", "phone": "+233244111222", "address": "Labone",
	})
	require.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())
	created := decodeResponse(t, w)["data"].(map[string]interface{})
	id := uint(created["id"].(float64))
	assert.Equal(t, "Esi Mensah", created["full_name"])

	tests := []struct {
		name           string
		method         string
		path           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{"Tailor cannot create", http.MethodPost, "/tailor/customers", map[string]interface{}{"full_name": "X", "phone": "1"}, http.StatusForbidden, "FORBIDDEN"},
		{"Duplicate phone", http.MethodPost, "/manager/customers", map[string]interface{}{"full_name": "Other", "phone": "+233244111222"}, http.StatusBadRequest, "PHONE_EXISTS"},
		{"Missing phone", http.MethodPost, "/manager/customers", map[string]interface{}{"full_name": "Other"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"Tailor can read", http.MethodGet, fmt.Sprintf("/tailor/customers/%d", id), nil, http.StatusOK, ""},
		{"Unknown customer", http.MethodGet, "/tailor/customers/9999", nil, http.StatusNotFound, "CUSTOMER_NOT_FOUND"},
		{"Manager edits address", http.MethodPut, fmt.Sprintf("/manager/customers/%d", id), map[string]interface{}{"address": "Tema"}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, tt.method, tt.path, tt.requestBody)
			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, w))
			}
		})
	}

	w = performRequest(router, http.MethodGet, "/tailor/customers?search=esi", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	assert.Len(t, response["data"].([]interface{}), 1)
	assert.Equal(t, float64(1), response["pagination"].(map[string]interface{})["total"])

	// An open order makes deletion an admin decision that needs confirming
	var customer models.Customer
	require.NoError(t, db.First(&customer, id).Error)
	createTestOrder(t, db, manager, &customer, nil)

	path := fmt.Sprintf("/customers/%d", id)
	w = performRequest(router, http.MethodDelete, "/manager"+path, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CUSTOMER_HAS_ACTIVE_ORDERS", errorCode(t, w))

	w = performRequest(router, http.MethodDelete, "/admin"+path, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CONFIRMATION_REQUIRED", errorCode(t, w))

	w = performRequest(router, http.MethodDelete, "/admin"+path+"?force=true", nil)
	assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())

	w = performRequest(router, http.MethodGet, "/tailor"+path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
