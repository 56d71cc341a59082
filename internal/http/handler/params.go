package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"edulift.app/membership/common/id"
	"edulift.app/membership/internal/http/middleware"
	"edulift.app/membership/internal/model"
)

// pathID parses the :id parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context) (int64, bool) {
	v, err := id.Parse(c.Param("id"))
	if err != nil || v <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return v, true
}

// caller returns the identity attached by RequireAuth. Routes using it are
// always mounted behind that middleware; the 401 is a wiring guard.
func caller(c *gin.Context) (model.Identity, bool) {
	identity := middleware.GetIdentity(c.Request.Context())
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return model.Identity{}, false
	}
	return *identity, true
}
