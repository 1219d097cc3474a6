package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/internal/models"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

// UserReader is the read side of the user store.
type UserReader interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// EditableLister lists the presentations a user may edit.
type EditableLister interface {
	ListEditableBy(ctx context.Context, userID string) ([]models.Presentation, error)
}

type UserHandler struct {
	users         UserReader
	presentations EditableLister
}

func NewUserHandler(users UserReader, presentations EditableLister) *UserHandler {
	return &UserHandler{users: users, presentations: presentations}
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, users)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := h.users.GetByID(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// GET /api/users/:id/editable
func (h *UserHandler) Editable(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	ctx := requestContext(c)
	if _, err := h.users.GetByID(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	presentations, err := h.presentations.ListEditableBy(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, presentations)
}
