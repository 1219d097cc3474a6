package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/internal/handlers"
)

func registerPresentationRoutes(api *gin.RouterGroup, handler *handlers.PresentationHandler) {
	presentations := api.Group("/presentations")
	{
		presentations.GET("", handler.List)
		presentations.GET("/:id", handler.Get)
		presentations.GET("/:id/slides", handler.Slides)
		presentations.GET("/:id/editors", handler.Editors)
		presentations.GET("/:id/session", handler.Session)
	}
}

func registerSlideRoutes(api *gin.RouterGroup, handler *handlers.SlideHandler) {
	slides := api.Group("/slides")
	{
		slides.GET("/:id", handler.Get)
		slides.GET("/:id/elements", handler.Elements)
	}
}
