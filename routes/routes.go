package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/controllers"
	"github.com/tailorworks/tailorshop-api/middleware"
	"github.com/tailorworks/tailorshop-api/models"
)

// CORS allows the configured origins; "*" or an empty list allows any origin
func CORS(origins []string) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	return cors.New(corsConfig)
}

// Register mounts the API under v1. auth validates the bearer token and must
// set the subject the way middleware.EnsureValidToken does.
func Register(v1 *gin.RouterGroup, auth gin.HandlerFunc) {
	elevated := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	workshop := middleware.RequireRoles(models.RoleAdmin, models.RoleManager, models.RoleTailor)
	till := middleware.RequireRoles(models.RoleAdmin, models.RoleManager, models.RoleCashier)

	// Self-provisioning runs before a profile exists
	v1.POST("/users", auth, controllers.CreateUser)

	api := v1.Group("", auth, middleware.CurrentUser())

	users := api.Group("/users")
	{
		users.GET("/me", controllers.GetMyProfile)
		users.PUT("/me", controllers.UpdateMyProfile)
	}

	customers := api.Group("/customers")
	{
		customers.GET("", controllers.ListCustomers)
		customers.POST("", elevated, controllers.CreateCustomer)
		customers.GET("/:id", controllers.GetCustomer)
		customers.PUT("/:id", elevated, controllers.UpdateCustomer)
		customers.DELETE("/:id", elevated, controllers.DeleteCustomer)
	}

	measurements := api.Group("/measurements")
	{
		measurements.POST("", elevated, controllers.CreateMeasurement)
		measurements.GET("/customer/:customerId", controllers.ListCustomerMeasurements)
		measurements.PUT("/:id", elevated, controllers.UpdateMeasurement)
	}

	orders := api.Group("/orders")
	{
		orders.GET("", controllers.ListOrders)
		orders.POST("", elevated, controllers.CreateOrder)
		orders.GET("/:id", controllers.GetOrder)
		orders.PUT("/:id", elevated, controllers.UpdateOrder)
		orders.PUT("/:id/status", workshop, controllers.UpdateOrderStatus)
		orders.PUT("/:id/assign", elevated, controllers.AssignOrder)
		orders.DELETE("/:id", elevated, controllers.DeleteOrder)
		orders.POST("/:id/image", elevated, controllers.UploadOrderImage)
	}

	payments := api.Group("/payments")
	{
		payments.POST("", till, controllers.AddPayment)
		payments.GET("/order/:orderId", controllers.ListPaymentsForOrder)
		payments.DELETE("/:id", elevated, controllers.DeletePayment)
	}

	reports := api.Group("/reports", elevated)
	{
		reports.GET("/daily", controllers.DailyReport)
		reports.GET("/monthly", controllers.MonthlyReport)
		reports.GET("/employees", controllers.EmployeeReport)
	}

	employees := api.Group("/employees")
	{
		employees.GET("", elevated, controllers.ListEmployees)
		employees.POST("", adminOnly, controllers.CreateEmployee)
		employees.PUT("/:id", adminOnly, controllers.UpdateEmployee)
	}
}
