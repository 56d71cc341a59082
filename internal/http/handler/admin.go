package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"edulift.app/membership/internal/service"
)

type AdminHandler struct {
	reaper service.ExpiryReaper
}

func NewAdminHandler(reaper service.ExpiryReaper) *AdminHandler {
	return &AdminHandler{reaper: reaper}
}

// ExpireInvitations runs one expiry sweep on demand (admin only).
func (h *AdminHandler) ExpireInvitations(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.reaper.RunExpirySweep(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "manual expiry sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to expire invitations"})
		return
	}

	slog.InfoContext(ctx, "manual expiry sweep via admin API", "expired_total", result.Total())
	c.JSON(http.StatusOK, result)
}
