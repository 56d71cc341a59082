package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/service"
)

// Subscriber upgrades a request into a realtime session for one family or
// group. Implemented by realtime.Hub.
type Subscriber interface {
	ServeFamily(w http.ResponseWriter, r *http.Request, familyID, userID int64) error
	ServeGroup(w http.ResponseWriter, r *http.Request, groupID, userID int64) error
}

type WSHandler struct {
	membership service.MembershipCoordinator
	hub        Subscriber
}

func NewWSHandler(membership service.MembershipCoordinator, hub Subscriber) *WSHandler {
	return &WSHandler{membership: membership, hub: hub}
}

func (h *WSHandler) Family(c *gin.Context) {
	h.serve(c, model.InvitationKindFamily)
}

func (h *WSHandler) Group(c *gin.Context) {
	h.serve(c, model.InvitationKindGroup)
}

func (h *WSHandler) serve(c *gin.Context, kind model.InvitationKind) {
	targetID, ok := pathID(c)
	if !ok {
		return
	}
	identity, ok := caller(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.membership.AuthorizeSubscription(ctx, identity, kind, targetID); err != nil {
		writeError(c, err, "failed to authorize subscription")
		return
	}

	var err error
	if kind == model.InvitationKindFamily {
		err = h.hub.ServeFamily(c.Writer, c.Request, targetID, identity.UserID)
	} else {
		err = h.hub.ServeGroup(c.Writer, c.Request, targetID, identity.UserID)
	}
	if err != nil {
		// The upgrader has already written the response.
		slog.WarnContext(ctx, "websocket session ended with error", "error", err, "kind", kind, "target_id", targetID)
	}
}
