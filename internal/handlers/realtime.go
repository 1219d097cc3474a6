package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivgeniay/jointpresentation/internal/auth"
	"github.com/ivgeniay/jointpresentation/internal/collab"
	"github.com/ivgeniay/jointpresentation/pkg/errors"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

// Upgrader attaches an HTTP request to the realtime hub. *realtime.Hub satisfies it.
type Upgrader interface {
	Serve(w http.ResponseWriter, r *http.Request, items map[string]any)
}

// TicketValidator checks session tickets presented at upgrade time.
type TicketValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RealtimeHandler upgrades HTTP connections into realtime websocket sessions.
type RealtimeHandler struct {
	hub     Upgrader
	tickets TicketValidator
}

func NewRealtimeHandler(hub Upgrader, tickets TicketValidator) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, tickets: tickets}
}

// Stream upgrades the request. Connections without a ticket start anonymous and identify
// with connectUser; a presented ticket must be valid and is resumed right after the upgrade.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	items := make(map[string]any, 1)
	if token := ticketFromRequest(c); token != "" {
		if h.tickets == nil {
			response.Error(c, errors.ErrUnauthenticated)
			return
		}
		if _, err := h.tickets.Validate(token); err != nil {
			response.Error(c, err)
			return
		}
		items[collab.ItemSessionTicket] = token
	}

	h.hub.Serve(c.Writer, c.Request, items)
}

func ticketFromRequest(c *gin.Context) string {
	if token := strings.TrimSpace(c.Query("ticket")); token != "" {
		return token
	}
	authz := c.GetHeader("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
