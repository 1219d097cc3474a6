package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/database"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports process liveness and database reachability.
type HealthHandler struct {
	db          *gorm.DB
	connections func() int
}

// NewHealthHandler builds a health handler. connections may be nil.
func NewHealthHandler(db *gorm.DB, connections func() int) *HealthHandler {
	return &HealthHandler{db: db, connections: connections}
}

// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	payload := gin.H{
		"status":     "ok",
		"database":   "ok",
		"checked_at": time.Now().UTC(),
	}
	if h.connections != nil {
		payload["connections"] = h.connections()
	}

	if err := h.ping(requestContext(c)); err != nil {
		payload["status"] = "degraded"
		payload["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, response.Response{Success: false, Data: payload})
		return
	}

	response.Success(c, http.StatusOK, payload)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return database.Ping(ctx, h.db)
}
