package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine, handler *handlers.HealthHandler) {
	r.GET("/health", handler.Check)
	r.GET("/api/health", handler.Check)
}
