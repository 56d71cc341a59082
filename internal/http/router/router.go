package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"edulift.app/membership/internal/http/handler"
	"edulift.app/membership/internal/http/middleware"
	"edulift.app/membership/internal/service"
)

type RouterConfig struct {
	AdminAPIKey string
	CORSOrigins []string
}

// Deps are the collaborators the routes dispatch to.
type Deps struct {
	Membership    service.MembershipCoordinator
	Reaper        service.ExpiryReaper
	Hub           handler.Subscriber
	Authenticator *middleware.Authenticator
}

func SetupRoutes(router *gin.Engine, deps Deps, cfg RouterConfig) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.RequireAuth(deps.Authenticator)
	optionalAuth := middleware.OptionalAuth(deps.Authenticator)

	invitationHandler := handler.NewInvitationHandler(deps.Membership)
	membershipHandler := handler.NewMembershipHandler(deps.Membership)

	v1 := router.Group("/api/v1")
	{
		FamilyRouter(v1.Group("/families", requireAuth), invitationHandler, membershipHandler)
		GroupRouter(v1.Group("/groups", requireAuth), invitationHandler)
		InvitationRouter(v1.Group("/invitations"), invitationHandler, requireAuth, optionalAuth)
	}

	adminHandler := handler.NewAdminHandler(deps.Reaper)
	AdminRouter(router.Group("/admin", middleware.RequireAdminAPIKey(cfg.AdminAPIKey)), adminHandler)

	wsHandler := handler.NewWSHandler(deps.Membership, deps.Hub)
	WSRouter(router.Group("/ws", requireAuth), wsHandler)
}
