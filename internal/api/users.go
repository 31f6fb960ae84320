package api

import (
	"net/http" // HTTP status codes

	"shop_system/internal/middleware" // Caller identity
	"shop_system/internal/service"    // Account operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for profile update
type UpdateProfileRequest struct {
	Email string `json:"email" binding:"required"` // New email
}

// Request struct for role change
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"` // superadmin or admin
}

// UpdateProfileHandler changes the caller's email
func UpdateProfileHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var req UpdateProfileRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		user, err := accounts.UpdateProfile(c.Request.Context(), id.UserID, req.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": toUser(*user)})
	}
}

// ListUsersHandler returns all users, newest first
func ListUsersHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := accounts.ListUsers(c.Request.Context(), pageRequest(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": toUsers(page.Users), "pagination": page.Pagination})
	}
}

// SearchUsersHandler filters users by email substring and role
func SearchUsersHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := accounts.SearchUsers(c.Request.Context(), c.Query("q"), c.Query("role"), pageRequest(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": toUsers(page.Users), "pagination": page.Pagination})
	}
}

// UserStatsHandler counts users per role
func UserStatsHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := accounts.Stats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}

// GetUserHandler returns one user
func GetUserHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := paramID(c, "id") // Parse user ID from path
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := accounts.GetUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": toUser(*user)})
	}
}

// CreateAdminHandler creates an admin account
func CreateAdminHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var req CredentialsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		user, err := accounts.CreateAdmin(c.Request.Context(), id, req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Admin user created successfully", "user": toUser(*user)})
	}
}

// UpdateUserRoleHandler sets another user's role
func UpdateUserRoleHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		targetID, err := paramID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req UpdateRoleRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		user, err := accounts.UpdateRole(c.Request.Context(), id, targetID, req.Role)
		if err != nil {
			respondError(c, err) // Self-demotion is denied
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully", "user": toUser(*user)})
	}
}

// DeleteUserHandler removes a user and their cart
func DeleteUserHandler(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		targetID, err := paramID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := accounts.DeleteUser(c.Request.Context(), id, targetID); err != nil {
			respondError(c, err) // Self and superadmin targets are denied
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}
