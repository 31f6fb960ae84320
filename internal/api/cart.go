package api

import (
	"net/http" // HTTP status codes

	"shop_system/internal/metrics"    // Cart operation counters
	"shop_system/internal/middleware" // Caller identity
	"shop_system/internal/service"    // Cart operations

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// AddToCartRequest represents an add-to-cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required,gt=0"` // Product to add
	Quantity  int  `json:"quantity" binding:"required,gt=0"`   // Units to add, accumulates
}

// UpdateCartItemRequest represents a quantity change
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"` // New absolute quantity
}

// GetCartHandler returns the caller's cart with totals
func GetCartHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c) // Get caller from context
		if err != nil {
			respondError(c, err)
			return
		}
		view, err := carts.ViewCart(c.Request.Context(), id.UserID) // Creates the cart on first access
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cart": toCart(view)})
	}
}

// AddToCartHandler adds units of a product to the caller's cart
func AddToCartHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var req AddToCartRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		item, err := carts.AddItem(c.Request.Context(), id.UserID, req.ProductID, req.Quantity)
		metrics.RecordCartOp("add", err)
		if err != nil {
			respondError(c, err) // Missing product or insufficient stock
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart", "cartItem": toCartLine(item)})
	}
}

// UpdateCartItemHandler sets the quantity of one of the caller's lines
func UpdateCartItemHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		itemID, err := paramID(c, "itemId") // Parse item ID from path
		if err != nil {
			respondError(c, err)
			return
		}
		var req UpdateCartItemRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		item, err := carts.UpdateItem(c.Request.Context(), id.UserID, itemID, req.Quantity)
		metrics.RecordCartOp("update", err)
		if err != nil {
			respondError(c, err) // Foreign items are reported as not found
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item updated", "cartItem": toCartLine(item)})
	}
}

// RemoveCartItemHandler deletes one of the caller's lines
func RemoveCartItemHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		itemID, err := paramID(c, "itemId")
		if err != nil {
			respondError(c, err)
			return
		}
		err = carts.RemoveItem(c.Request.Context(), id.UserID, itemID)
		metrics.RecordCartOp("remove", err)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
	}
}

// ClearCartHandler empties the caller's cart
func ClearCartHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := middleware.CurrentIdentity(c)
		if err != nil {
			respondError(c, err)
			return
		}
		removed, err := carts.ClearCart(c.Request.Context(), id.UserID)
		metrics.RecordCartOp("clear", err)
		if err != nil {
			respondError(c, err) // No cart row at all
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": id.UserID, "removed": removed}).Info("Cart cleared")
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// ListAllCartsHandler pages through every user's cart
func ListAllCartsHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := carts.ListAllCarts(c.Request.Context(), pageRequest(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"carts": toCartSummaries(page.Carts), "pagination": page.Pagination})
	}
}
