package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/middleware"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/services"
	"github.com/tailorworks/tailorshop-api/utils"
)

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondList(c *gin.Context, data interface{}, page utils.Pagination, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":       page.Page,
			"limit":      page.Limit,
			"total":      total,
			"totalPages": page.TotalPages(total),
		},
	})
}

func respondFailure(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondError renders a service or upload error with the matching status code
func respondError(c *gin.Context, err error) {
	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondFailure(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.Printf("Unexpected error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondFailure(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}

	switch svcErr.Kind {
	case services.KindNotFound:
		respondFailure(c, http.StatusNotFound, svcErr.Code, svcErr.Message)
	case services.KindInvalid:
		respondFailure(c, http.StatusBadRequest, svcErr.Code, svcErr.Message)
	case services.KindForbidden:
		respondFailure(c, http.StatusForbidden, svcErr.Code, svcErr.Message)
	case services.KindConflict:
		respondFailure(c, http.StatusConflict, svcErr.Code, svcErr.Message)
	default:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondFailure(c, http.StatusInternalServerError, svcErr.Code, svcErr.Message)
	}
}

// parseIDParam reads a positive numeric path parameter, writing a 400 when it is not one
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondFailure(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the employee resolved by middleware.CurrentUser, writing a 401 when absent
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondFailure(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

func auditSink() services.AuditSink {
	return services.NewDBAuditSink(config.GetDB())
}

func orderService() *services.OrderService {
	return services.NewOrderService(config.GetDB(), auditSink())
}

func paymentService() *services.PaymentService {
	return services.NewPaymentService(config.GetDB(), auditSink())
}
