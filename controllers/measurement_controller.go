package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/services"
)

// MeasurementRequest represents the request body for recording measurements.
// Numeric fields go in measurements (shoulder, sleeve, length, chest, waist, hip, leg).
type MeasurementRequest struct {
	CustomerID   uint                   `json:"customer_id"`
	GarmentType  string                 `json:"garment_type"`
	Measurements map[string]float64     `json:"measurements"`
	ExtraFields  map[string]interface{} `json:"extra_fields"`
	IsDefault    bool                   `json:"is_default"`
}

func measurementService() *services.MeasurementService {
	return services.NewMeasurementService(config.GetDB(), auditSink())
}

func (r MeasurementRequest) input() services.MeasurementInput {
	return services.MeasurementInput{
		CustomerID:  r.CustomerID,
		GarmentType: r.GarmentType,
		Values:      r.Measurements,
		ExtraFields: r.ExtraFields,
		IsDefault:   r.IsDefault,
	}
}

// CreateMeasurement handles POST /api/v1/measurements
func CreateMeasurement(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.CustomerID == 0 {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id is required")
		return
	}

	measurement, err := measurementService().CreateMeasurement(c.Request.Context(), user, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, measurement)
}

// ListCustomerMeasurements handles GET /api/v1/measurements/customer/:customerId
func ListCustomerMeasurements(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}
	measurements, err := measurementService().ListMeasurementsForCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, measurements)
}

// UpdateMeasurement handles PUT /api/v1/measurements/:id.
// The stored version is kept and a new version is returned.
func UpdateMeasurement(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	measurement, err := measurementService().UpdateMeasurement(c.Request.Context(), user, id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, measurement)
}
