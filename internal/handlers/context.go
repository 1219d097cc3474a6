package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/pkg/errors"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// pathID reads a required path parameter.
func pathID(c *gin.Context, name string) (string, error) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		return "", errors.NewInvalidArgument(name + " is required")
	}
	return id, nil
}
