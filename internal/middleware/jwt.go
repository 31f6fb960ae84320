package middleware

import (
	"context" // Context passed to the account service
	"strings" // String manipulation

	"shop_system/internal/apperr" // Error kinds
	"shop_system/internal/policy" // Caller identity

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "userID"
	ContextRole     = "role"
	ContextIdentity = "identity"
	TokenCookie     = "token"
)

// Authenticator resolves a session token into the caller's identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (policy.Identity, error)
}

// JWTAuthMiddleware validates the session token from the Authorization header
// or the token cookie and stores the caller in the context
func JWTAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := auth.Authenticate(c.Request.Context(), TokenFromRequest(c)) // Verify token and re-fetch user
		if err != nil {
			RespondError(c, err) // 401 with the verification failure
			c.Abort()
			return
		}
		c.Set(ContextUserID, id.UserID) // Store userID in context
		c.Set(ContextRole, id.Role)     // Store live role in context
		c.Set(ContextIdentity, id)      // Store identity for policy checks
		c.Next()                        // Proceed to the next handler
	}
}

// TokenFromRequest prefers a Bearer header and falls back to the cookie
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v, err := c.Cookie(TokenCookie); err == nil {
		return v
	}
	return ""
}

// CurrentIdentity returns the authenticated caller
func CurrentIdentity(c *gin.Context) (policy.Identity, error) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return policy.Identity{}, apperr.New(apperr.Unauthenticated, "Authentication required")
	}
	id, ok := v.(policy.Identity)
	if !ok {
		return policy.Identity{}, apperr.New(apperr.Unauthenticated, "Authentication required")
	}
	return id, nil
}
