package router

import (
	"github.com/gin-gonic/gin"

	"edulift.app/membership/internal/http/handler"
)

// InvitationRouter sets up the code-based invitation routes.
// - validate is public; a token adds eligibility facts
// - accept, cancel and mine require a token
func InvitationRouter(rg *gin.RouterGroup, h *handler.InvitationHandler, requireAuth, optionalAuth gin.HandlerFunc) {
	rg.GET("/family/validate", optionalAuth, h.ValidateFamily)
	rg.GET("/group/validate", optionalAuth, h.ValidateGroup)

	authed := rg.Group("", requireAuth)
	{
		authed.POST("/family/accept", h.AcceptFamily)
		authed.POST("/group/accept", h.AcceptGroup)
		authed.DELETE("/family/:id", h.CancelFamily)
		authed.DELETE("/group/:id", h.CancelGroup)
		authed.GET("/mine", h.Mine)
	}
}

func FamilyRouter(rg *gin.RouterGroup, h *handler.InvitationHandler, m *handler.MembershipHandler) {
	rg.POST("/leave", m.LeaveFamily)
	rg.POST("/:id/invitations", h.CreateFamily)
	rg.GET("/:id/invitations", h.ListFamily)
}

func GroupRouter(rg *gin.RouterGroup, h *handler.InvitationHandler) {
	rg.POST("/:id/invitations", h.CreateGroup)
	rg.GET("/:id/invitations", h.ListGroup)
}
