package api

import (
	"net/http" // HTTP status codes
	"time"     // Cookie lifetime

	"shop_system/internal/middleware" // Identity and cookie name
	"shop_system/internal/service"    // Account operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for registration and login
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"` // Current password for verification
	NewPassword     string `json:"newPassword" binding:"required"`     // Replacement password
}

// SessionCookie controls the token cookie written on sign-in
type SessionCookie struct {
	Secure bool          // Only sent over HTTPS
	TTL    time.Duration // Cookie lifetime, matches the token's
}

func (sc SessionCookie) set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, token, int(sc.TTL.Seconds()), "/", "", sc.Secure, true)
}

func (sc SessionCookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", sc.Secure, true)
}

// RegisterHandler creates an admin account and signs it in
func RegisterHandler(accounts *service.AccountService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CredentialsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c) // If binding fails, return bad request
			return
		}
		sess, err := accounts.Register(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err) // Validation or duplicate email
			return
		}
		cookie.set(c, sess.Token) // Store token in httpOnly cookie
		c.JSON(http.StatusCreated, gin.H{
			"message":   "User registered successfully",
			"user":      toUser(sess.User),
			"token":     sess.Token,
			"expiresAt": sess.ExpiresAt,
		})
	}
}

// LoginHandler authenticates a user and returns a session token
func LoginHandler(accounts *service.AccountService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CredentialsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		sess, err := accounts.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err) // Invalid credentials
			return
		}
		cookie.set(c, sess.Token)
		c.JSON(http.StatusOK, gin.H{
			"message":   "Login successful",
			"user":      toUser(sess.User),
			"token":     sess.Token,
			"expiresAt": sess.ExpiresAt,
		})
	}
}

// ProfileHandler returns the caller's account
func ProfileHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c) // Get caller from context
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := accounts.Profile(c.Request.Context(), id.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": toUser(*user)})
	}
}

// LogoutHandler clears the session cookie
func LogoutHandler(cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie.clear(c)
		c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
	}
}

// ChangePasswordHandler replaces the caller's password
func ChangePasswordHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var req ChangePasswordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		if err := accounts.ChangePassword(c.Request.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}
