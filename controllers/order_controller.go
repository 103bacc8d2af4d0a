package controllers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/services"
	"github.com/tailorworks/tailorshop-api/utils"
)

// CreateOrderRequest represents the request body for creating an order.
// Money fields accept JSON numbers or decimal strings.
type CreateOrderRequest struct {
	CustomerID          uint                   `json:"customer_id" binding:"required"`
	GarmentType         string                 `json:"garment_type" binding:"required"`
	FabricType          string                 `json:"fabric_type"`
	Color               string                 `json:"color"`
	StyleNotes          string                 `json:"style_notes"`
	MeasurementID       *uint                  `json:"measurement_id"`
	MeasurementSnapshot map[string]interface{} `json:"measurement_snapshot"`
	DeliveryDate        string                 `json:"delivery_date" binding:"required"`
	Priority            string                 `json:"priority"`
	AssignedToID        *uint                  `json:"assigned_to_id"`
	PriceTotal          *decimal.Decimal       `json:"price_total" binding:"required"`
	Discount            *decimal.Decimal       `json:"discount"`
}

// UpdateOrderRequest represents the request body for editing an order; omitted fields are unchanged
type UpdateOrderRequest struct {
	GarmentType  *string          `json:"garment_type"`
	FabricType   *string          `json:"fabric_type"`
	Color        *string          `json:"color"`
	StyleNotes   *string          `json:"style_notes"`
	DeliveryDate *string          `json:"delivery_date"`
	Priority     *string          `json:"priority"`
	AssignedToID *uint            `json:"assigned_to_id"`
	PriceTotal   *decimal.Decimal `json:"price_total"`
	Discount     *decimal.Decimal `json:"discount"`
}

// UpdateOrderStatusRequest represents the request body for a status transition
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// AssignOrderRequest represents the request body for assigning an order
type AssignOrderRequest struct {
	EmployeeID uint `json:"employee_id" binding:"required"`
}

// CreateOrder handles POST /api/v1/orders
func CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	deliveryDate, err := utils.ParseDate(req.DeliveryDate)
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_DELIVERY_DATE", err.Error())
		return
	}

	input := services.CreateOrderInput{
		CustomerID:          req.CustomerID,
		GarmentType:         req.GarmentType,
		FabricType:          req.FabricType,
		Color:               req.Color,
		StyleNotes:          req.StyleNotes,
		MeasurementID:       req.MeasurementID,
		MeasurementSnapshot: req.MeasurementSnapshot,
		DeliveryDate:        deliveryDate,
		Priority:            req.Priority,
		AssignedToID:        req.AssignedToID,
		PriceTotal:          *req.PriceTotal,
	}
	if req.Discount != nil {
		input.Discount = *req.Discount
	}

	order, err := orderService().CreateOrder(c.Request.Context(), user, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders.
// Tailors only ever see orders assigned to them.
func ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	filter := services.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
	}
	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		respondFailure(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown status filter")
		return
	}

	var err error
	if filter.CustomerID, err = optionalIDQuery(c, "customer_id"); err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_FILTER", "customer_id must be a number")
		return
	}
	if filter.AssignedToID, err = optionalIDQuery(c, "assigned_to"); err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_FILTER", "assigned_to must be a number")
		return
	}
	if filter.DateFrom, err = optionalDateQuery(c, "date_from"); err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}
	if filter.DateTo, err = optionalDateQuery(c, "date_to"); err != nil {
		respondFailure(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}

	page := utils.BuildPagination(c.Query("page"), c.Query("limit"))
	orders, total, err := orderService().ListOrders(c.Request.Context(), user, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	respondList(c, orders, page, total)
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := orderService().GetOrder(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	attachImageURL(c, order)
	respondSuccess(c, http.StatusOK, order)
}

// UpdateOrder handles PUT /api/v1/orders/:id
func UpdateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	input := services.UpdateOrderInput{
		GarmentType:  req.GarmentType,
		FabricType:   req.FabricType,
		Color:        req.Color,
		StyleNotes:   req.StyleNotes,
		Priority:     req.Priority,
		AssignedToID: req.AssignedToID,
		PriceTotal:   req.PriceTotal,
		Discount:     req.Discount,
	}
	if req.DeliveryDate != nil {
		deliveryDate, err := utils.ParseDate(*req.DeliveryDate)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "INVALID_DELIVERY_DATE", err.Error())
			return
		}
		input.DeliveryDate = &deliveryDate
	}

	order, err := orderService().UpdateOrder(c.Request.Context(), user, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status
func UpdateOrderStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := orderService().UpdateOrderStatus(c.Request.Context(), user, id, req.Status, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// AssignOrder handles PUT /api/v1/orders/:id/assign
func AssignOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := orderService().AssignOrder(c.Request.Context(), user, id, req.EmployeeID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/orders/:id
func DeleteOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := orderService().DeleteOrder(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}

// UploadOrderImage handles POST /api/v1/orders/:id/image - stores a PNG style reference
func UploadOrderImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		respondFailure(c, http.StatusServiceUnavailable, "IMAGE_STORAGE_DISABLED", "Image storage is not configured")
		return
	}

	ctx := c.Request.Context()
	orders := orderService()

	// Load first so a missing or forbidden order never reaches S3
	order, err := orders.GetOrder(ctx, user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "NO_FILE", "No image file provided")
		return
	}

	key, err := imageService.UploadOrderImage(ctx, order.OrderNumber, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, previous, err := orders.SetOrderImage(ctx, user, id, key)
	if err != nil {
		if delErr := imageService.DeleteImage(ctx, key); delErr != nil {
			log.Printf("Failed to remove orphaned image %s: %v", key, delErr)
		}
		respondError(c, err)
		return
	}

	if previous != "" {
		if err := imageService.DeleteImage(ctx, previous); err != nil {
			log.Printf("Failed to delete previous image %s for order %d: %v", previous, id, err)
		}
	}

	attachImageURL(c, updated)
	respondSuccess(c, http.StatusOK, updated)
}

// attachImageURL fills the presigned URL when an image exists; failures are logged only
func attachImageURL(c *gin.Context, order *models.Order) {
	imageService := services.GetImageService()
	if imageService == nil || order.ImageS3Key == nil || *order.ImageS3Key == "" {
		return
	}
	url, err := imageService.GetImageURL(c.Request.Context(), *order.ImageS3Key)
	if err != nil {
		log.Printf("Failed to generate image URL for order %d: %v", order.ID, err)
		return
	}
	order.ImageURL = &url
}

func optionalIDQuery(c *gin.Context, name string) (*uint, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, err
	}
	v := uint(id)
	return &v, nil
}

func optionalDateQuery(c *gin.Context, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
