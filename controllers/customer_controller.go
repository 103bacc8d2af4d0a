package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/services"
	"github.com/tailorworks/tailorshop-api/utils"
)

// CustomerRequest represents the request body for creating a customer
type CustomerRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
}

// UpdateCustomerRequest represents the request body for editing a customer
type UpdateCustomerRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

func customerService() *services.CustomerService {
	return services.NewCustomerService(config.GetDB(), auditSink())
}

// ListCustomers handles GET /api/v1/customers?search=&page=&limit=
func ListCustomers(c *gin.Context) {
	page := utils.BuildPagination(c.Query("page"), c.Query("limit"))
	customers, total, err := customerService().ListCustomers(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, customers, page, total)
}

// GetCustomer handles GET /api/v1/customers/:id
func GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	customer, err := customerService().GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, customer)
}

// CreateCustomer handles POST /api/v1/customers
func CreateCustomer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	customer, err := customerService().CreateCustomer(c.Request.Context(), user, services.CustomerInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, customer)
}

// UpdateCustomer handles PUT /api/v1/customers/:id
func UpdateCustomer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	customer, err := customerService().UpdateCustomer(c.Request.Context(), user, id, services.UpdateCustomerInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id?force=true
func DeleteCustomer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	force := c.Query("force") == "true"
	if err := customerService().DeleteCustomer(c.Request.Context(), user, id, force); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Customer deleted",
	})
}
