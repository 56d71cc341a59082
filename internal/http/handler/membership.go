package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"edulift.app/membership/internal/service"
)

type MembershipHandler struct {
	membership service.MembershipCoordinator
}

func NewMembershipHandler(membership service.MembershipCoordinator) *MembershipHandler {
	return &MembershipHandler{membership: membership}
}

// LeaveFamily removes the caller from their family.
func (h *MembershipHandler) LeaveFamily(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.membership.LeaveFamily(ctx, identity); err != nil {
		writeError(c, err, "failed to leave family")
		return
	}

	slog.InfoContext(ctx, "user left family via API")
	c.Status(http.StatusNoContent)
}
