package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tailorworks/tailorshop-api/services"
	"github.com/tailorworks/tailorshop-api/utils"
)

// AddPaymentRequest represents the request body for recording a payment
type AddPaymentRequest struct {
	OrderID        uint             `json:"order_id" binding:"required"`
	AmountPaid     *decimal.Decimal `json:"amount_paid" binding:"required"`
	Method         string           `json:"method" binding:"required"`
	TransactionRef string           `json:"transaction_ref"`
	PaidAt         string           `json:"paid_at"`
}

// AddPayment handles POST /api/v1/payments
func AddPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	input := services.AddPaymentInput{
		OrderID:        req.OrderID,
		AmountPaid:     *req.AmountPaid,
		Method:         req.Method,
		TransactionRef: req.TransactionRef,
	}
	if req.PaidAt != "" {
		paidAt, err := utils.ParseDate(req.PaidAt)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
			return
		}
		input.PaidAt = &paidAt
	}

	result, err := paymentService().AddPayment(c.Request.Context(), user, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, result)
}

// ListPaymentsForOrder handles GET /api/v1/payments/order/:orderId
func ListPaymentsForOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}

	payments, err := paymentService().ListPaymentsForOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, payments)
}

// DeletePayment handles DELETE /api/v1/payments/:id - reverses a payment
func DeletePayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	totals, err := paymentService().DeletePayment(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, totals)
}
