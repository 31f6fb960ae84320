package middleware

import (
	"shop_system/internal/policy" // Role/action table

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequirePermission lets the request through only when the caller's live
// role may perform action. It must run after JWTAuthMiddleware.
func RequirePermission(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := CurrentIdentity(c) // Identity set by the auth middleware
		if err != nil {
			RespondError(c, err)
			c.Abort()
			return
		}
		// Check the role against the capability table
		if err := policy.Authorize(id.Role, action); err != nil {
			RespondError(c, err)
			c.Abort()
			return
		}
		c.Next() // Allowed, proceed to the next handler
	}
}
