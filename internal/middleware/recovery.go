package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ivgeniay/jointpresentation/pkg/errors"
	"github.com/ivgeniay/jointpresentation/pkg/logger"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

// Recovery converts panics into a 500 response and logs the error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", r),
				)
				response.Error(c, errors.ErrInternal)
			}
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.ErrNotFound.WithMessage("route %s not found", c.Request.URL.Path))
}

// MethodNotAllowedHandler mirrors NotFoundHandler for known paths with the wrong verb.
func MethodNotAllowedHandler(c *gin.Context) {
	response.Error(c, errors.New(errors.KindInvalidArgument, "METHOD_NOT_ALLOWED",
		c.Request.Method+" is not supported on this route", http.StatusMethodNotAllowed))
}
