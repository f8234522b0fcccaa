// internal/interfaces/http/handlers/helpers.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
)

// actorFrom builds the audit actor for the authenticated user, or the
// anonymous actor when the request carries no identity
func actorFrom(c *gin.Context) audit.Actor {
	idVal, ok := c.Get("user_id")
	if !ok {
		return audit.Anonymous
	}
	id := idVal.(uint)

	actor := audit.Actor{ID: &id}
	if email, ok := c.Get("user_email"); ok {
		actor.Email = email.(string)
	}
	if role, ok := c.Get("user_role"); ok {
		actor.Role = role.(string)
	}
	return actor
}

// currentUserID returns the authenticated user's ID; zero when anonymous
func currentUserID(c *gin.Context) uint {
	idVal, ok := c.Get("user_id")
	if !ok {
		return 0
	}
	return idVal.(uint)
}

// isAdmin reports whether the request is from an admin account
func isAdmin(c *gin.Context) bool {
	role, ok := c.Get("user_role")
	return ok && role.(string) == "admin"
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
