package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/internal/handlers"
)

func registerRealtimeRoutes(r *gin.Engine, handler *handlers.RealtimeHandler) {
	r.GET("/ws", handler.Stream)
}
