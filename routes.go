package main

import (
	"github.com/gin-gonic/gin"
	"github.com/tailorworks/tailorshop-api/routes"
)

// setupRouter builds the engine with every route. auth validates the bearer
// token; the server passes middleware.EnsureValidToken.
func setupRouter(origins []string, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(routes.CORS(origins))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}
	routes.Register(v1, auth)

	return router
}
