package api

import (
	"context"  // Health check timeouts
	"net/http" // HTTP status codes
	"time"     // Durations

	"shop_system/internal/config"     // Application configuration
	"shop_system/internal/metrics"    // Prometheus instrumentation
	"shop_system/internal/middleware" // Auth, permissions, logging
	"shop_system/internal/policy"     // Protected actions
	"shop_system/internal/service"    // Business services

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the collaborators the HTTP surface delegates to
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client // nil when caching is disabled
	Accounts *service.AccountService
	Catalog  *service.CatalogService
	Carts    *service.CartService
}

// NewRouter builds the gin engine with every route
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.ErrorMode(d.Config.IsProd),
		metrics.Middleware(),
		cors.New(cors.Config{
			AllowOrigins:     []string{d.Config.FrontendURL},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	cookie := SessionCookie{Secure: d.Config.IsProd, TTL: d.Config.JWTTTL}
	auth := middleware.JWTAuthMiddleware(d.Accounts)
	can := middleware.RequirePermission

	api := r.Group("/api")
	api.GET("/health", HealthHandler(d.DB, d.Redis))

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.POST("/register", RegisterHandler(d.Accounts, cookie))
	authGroup.POST("/login", LoginHandler(d.Accounts, cookie))
	authGroup.POST("/logout", auth, LogoutHandler(cookie))
	authGroup.GET("/profile", auth, ProfileHandler(d.Accounts))
	authGroup.PUT("/change-password", auth, can(policy.ChangeOwnPass), ChangePasswordHandler(d.Accounts))

	// User routes (protected)
	users := api.Group("/users", auth)
	users.PUT("/profile", can(policy.UpdateOwnProfile), UpdateProfileHandler(d.Accounts))
	users.GET("", can(policy.ListUsers), ListUsersHandler(d.Accounts))
	users.GET("/search", can(policy.SearchUsers), SearchUsersHandler(d.Accounts))
	users.GET("/stats", can(policy.UserStats), UserStatsHandler(d.Accounts))
	users.POST("/create-admin", can(policy.CreateAdmin), CreateAdminHandler(d.Accounts))
	users.GET("/:id", can(policy.ViewUser), GetUserHandler(d.Accounts))
	users.PUT("/:id/role", can(policy.ChangeUserRole), UpdateUserRoleHandler(d.Accounts))
	users.DELETE("/:id", can(policy.DeleteUser), DeleteUserHandler(d.Accounts))

	// Product routes, reads are public
	products := api.Group("/products")
	products.GET("", ListProductsHandler(d.Catalog))
	products.GET("/search", SearchProductsHandler(d.Catalog))
	products.GET("/:id", GetProductHandler(d.Catalog))
	products.POST("", auth, can(policy.CreateProduct), CreateProductHandler(d.Catalog))
	products.PUT("/:id", auth, can(policy.UpdateProduct), UpdateProductHandler(d.Catalog))
	products.DELETE("/:id", auth, can(policy.DeleteProduct), DeleteProductHandler(d.Catalog))
	products.GET("/admin/low-stock", auth, can(policy.ViewLowStock), LowStockHandler(d.Catalog))

	// Cart routes (protected)
	cart := api.Group("/cart", auth)
	cart.GET("", can(policy.ManageOwnCart), GetCartHandler(d.Carts))
	cart.POST("/add", can(policy.ManageOwnCart), AddToCartHandler(d.Carts))
	cart.PUT("/item/:itemId", can(policy.ManageOwnCart), UpdateCartItemHandler(d.Carts))
	cart.DELETE("/item/:itemId", can(policy.ManageOwnCart), RemoveCartItemHandler(d.Carts))
	cart.DELETE("/clear", can(policy.ManageOwnCart), ClearCartHandler(d.Carts))
	cart.GET("/admin/all", can(policy.ViewAllCarts), ListAllCartsHandler(d.Carts))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
	})
	return r
}

// HealthHandler reports database and cache reachability
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "cache": "disabled"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			checks["cache"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["cache"] = "unavailable" // Cache is optional, stay healthy
			}
		}
		c.JSON(status, gin.H{"success": status == http.StatusOK, "checks": checks, "time": time.Now().UTC()})
	}
}
