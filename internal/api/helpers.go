package api

import (
	"strconv" // String conversion
	"time"    // Timestamps in responses

	"shop_system/internal/apperr"     // Error kinds
	"shop_system/internal/domain"     // Domain models
	"shop_system/internal/middleware" // Error responses and identity
	"shop_system/internal/service"    // Service result types

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact money values
)

// respondError writes err in the shared {success, message} shape
func respondError(c *gin.Context, err error) {
	middleware.RespondError(c, err)
}

// invalidBody reports a request body that failed binding
func invalidBody(c *gin.Context) {
	respondError(c, apperr.Invalidf("Invalid request"))
}

// paramID parses a positive integer path parameter
func paramID(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, apperr.Invalid(map[string]string{name: "Invalid ID"})
	}
	return uint(v), nil
}

// pageRequest reads page and limit; bad values fall back to defaults
func pageRequest(c *gin.Context) service.PageRequest {
	var p service.PageRequest
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = v // Set page if valid
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		p.Limit = v // Set limit if valid, clamped by Normalize
	}
	return p.Normalize()
}

// queryDecimal parses an optional decimal query parameter
func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperr.Invalid(map[string]string{name: name + " must be a number"})
	}
	return &d, nil
}

// UserResponse is a user without credentials
type UserResponse struct {
	ID        uint        `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func toUser(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func toUsers(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUser(u)
	}
	return out
}

// ProductResponse renders prices with exactly two fraction digits
type ProductResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProduct(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProducts(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProduct(p)
	}
	return out
}

// CartItemResponse is one cart line
type CartItemResponse struct {
	ID       uint                `json:"id"`
	Product  CartProductResponse `json:"product"`
	Quantity int                 `json:"quantity"`
	Subtotal string              `json:"subtotal"`
}

// CartProductResponse is the product snapshot shown on a cart line
type CartProductResponse struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    string  `json:"price"`
	ImageURL *string `json:"image_url"`
}

// CartResponse is a cart with totals
type CartResponse struct {
	ID            uint               `json:"id"`
	Items         []CartItemResponse `json:"items"`
	TotalItems    int                `json:"totalItems"`
	TotalQuantity int                `json:"totalQuantity"`
	TotalAmount   string             `json:"totalAmount"`
}

func toCart(v *service.CartView) CartResponse {
	items := make([]CartItemResponse, len(v.Items))
	for i, l := range v.Items {
		items[i] = CartItemResponse{
			ID: l.ID,
			Product: CartProductResponse{
				ID:       l.Product.ID,
				Name:     l.Product.Name,
				Price:    l.Product.Price.StringFixed(2),
				ImageURL: l.Product.ImageURL,
			},
			Quantity: l.Quantity,
			Subtotal: l.Subtotal.StringFixed(2),
		}
	}
	return CartResponse{
		ID:            v.ID,
		Items:         items,
		TotalItems:    v.TotalItems,
		TotalQuantity: v.TotalQuantity,
		TotalAmount:   v.TotalAmount.StringFixed(2),
	}
}

// CartLineResponse is a stored cart item after a mutation
type CartLineResponse struct {
	ID        uint `json:"id"`
	CartID    uint `json:"cart_id"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func toCartLine(it *domain.CartItem) CartLineResponse {
	return CartLineResponse{ID: it.ID, CartID: it.CartID, ProductID: it.ProductID, Quantity: it.Quantity}
}

// CartSummaryResponse is one row of the all-carts listing
type CartSummaryResponse struct {
	ID          uint      `json:"id"`
	User        CartOwner `json:"user"`
	ItemCount   int       `json:"itemCount"`
	TotalAmount string    `json:"totalAmount"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CartOwner identifies the user owning a cart
type CartOwner struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

func toCartSummaries(carts []service.CartSummary) []CartSummaryResponse {
	out := make([]CartSummaryResponse, len(carts))
	for i, s := range carts {
		out[i] = CartSummaryResponse{
			ID:          s.ID,
			User:        CartOwner{ID: s.UserID, Email: s.UserEmail},
			ItemCount:   s.ItemCount,
			TotalAmount: s.TotalAmount.StringFixed(2),
			UpdatedAt:   s.UpdatedAt,
		}
	}
	return out
}
