package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/internal/models"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

// SlideReader loads a slide with its elements.
type SlideReader interface {
	GetWithElements(ctx context.Context, id string) (*models.Slide, error)
}

type SlideHandler struct {
	slides SlideReader
}

func NewSlideHandler(slides SlideReader) *SlideHandler {
	return &SlideHandler{slides: slides}
}

// GET /api/slides/:id
func (h *SlideHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	slide, err := h.slides.GetWithElements(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, slide)
}

// GET /api/slides/:id/elements
func (h *SlideHandler) Elements(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	slide, err := h.slides.GetWithElements(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, slide.Elements)
}
