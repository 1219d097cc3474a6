package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler) {
	users := api.Group("/users")
	{
		users.GET("", handler.List)
		users.GET("/:id", handler.Get)
		users.GET("/:id/editable", handler.Editable)
	}
}
