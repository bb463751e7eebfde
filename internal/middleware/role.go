package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-research/portal/internal/models"
	"github.com/campus-research/portal/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles. Role
// checks are preconditions on the route; ownership checks stay in the core.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(models.Role)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
