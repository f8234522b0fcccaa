// internal/interfaces/http/middleware/audit_meta.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
)

// AuditMeta stashes request metadata in the context so audit entries
// written by the services carry method, endpoint, and client details.
func AuditMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithMeta(c.Request.Context(), audit.Meta{
			Method:    c.Request.Method,
			Endpoint:  c.FullPath(),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
