package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/services"
)

// CreateEmployeeRequest represents the request body for adding an employee
type CreateEmployeeRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required"`
	Auth0ID  string `json:"auth0_id"`
}

// UpdateEmployeeRequest represents the request body for editing an employee
type UpdateEmployeeRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
}

func employeeService() *services.EmployeeService {
	return services.NewEmployeeService(config.GetDB(), auditSink())
}

// ListEmployees handles GET /api/v1/employees
func ListEmployees(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	employees, err := employeeService().ListEmployees(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, employees)
}

// CreateEmployee handles POST /api/v1/employees
func CreateEmployee(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	employee, err := employeeService().CreateEmployee(c.Request.Context(), user, services.EmployeeInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		Auth0ID:  req.Auth0ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, employee)
}

// UpdateEmployee handles PUT /api/v1/employees/:id
func UpdateEmployee(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	employee, err := employeeService().UpdateEmployee(c.Request.Context(), user, id, services.UpdateEmployeeInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		Active:   req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, employee)
}
