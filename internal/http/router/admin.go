package router

import (
	"github.com/gin-gonic/gin"

	"edulift.app/membership/internal/http/handler"
)

func AdminRouter(rg *gin.RouterGroup, h *handler.AdminHandler) {
	rg.POST("/invitations/expire", h.ExpireInvitations)
}

func WSRouter(rg *gin.RouterGroup, h *handler.WSHandler) {
	rg.GET("/families/:id", h.Family)
	rg.GET("/groups/:id", h.Group)
}
