package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/internal/collab"
	"github.com/ivgeniay/jointpresentation/internal/models"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

// PresentationReader is the read side of the presentation store.
type PresentationReader interface {
	List(ctx context.Context) ([]models.Presentation, error)
	Get(ctx context.Context, id string) (*models.Presentation, error)
	ListEditors(ctx context.Context, presentationID string) ([]models.User, error)
}

// SlideLister lists the ordered slides of a presentation.
type SlideLister interface {
	ListByPresentation(ctx context.Context, presentationID string) ([]models.Slide, error)
}

// RoomReporter exposes live presence and mode.
type RoomReporter interface {
	Room(presentationID string) collab.RoomState
}

// PresentationHandler serves the presentation catalog and live session snapshots.
type PresentationHandler struct {
	presentations PresentationReader
	slides        SlideLister
	rooms         RoomReporter
}

// NewPresentationHandler wires the handler to its stores.
func NewPresentationHandler(presentations PresentationReader, slides SlideLister, rooms RoomReporter) *PresentationHandler {
	return &PresentationHandler{presentations: presentations, slides: slides, rooms: rooms}
}

// GET /api/presentations
func (h *PresentationHandler) List(c *gin.Context) {
	presentations, err := h.presentations.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, presentations)
}

// GET /api/presentations/:id
func (h *PresentationHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	presentation, err := h.presentations.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, presentation)
}

// GET /api/presentations/:id/slides
func (h *PresentationHandler) Slides(c *gin.Context) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	slides, err := h.slides.ListByPresentation(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, slides)
}

// GET /api/presentations/:id/editors
func (h *PresentationHandler) Editors(c *gin.Context) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	editors, err := h.presentations.ListEditors(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, editors)
}

// GET /api/presentations/:id/session
func (h *PresentationHandler) Session(c *gin.Context) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, h.rooms.Room(id))
}

// existing resolves the :id parameter and writes the error response when the presentation is unknown.
func (h *PresentationHandler) existing(c *gin.Context) (string, bool) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	if _, err := h.presentations.Get(requestContext(c), id); err != nil {
		response.Error(c, err)
		return "", false
	}
	return id, true
}
