package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Threshold parsing

	"shop_system/internal/apperr"  // Error kinds
	"shop_system/internal/service" // Catalog operations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact money values
)

const defaultLowStockThreshold = 10

// Request struct for product creation
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`  // Unique product name
	Description *string          `json:"description"`              // Optional description
	Price       *decimal.Decimal `json:"price" binding:"required"` // Accepts a number or a numeric string
	Stock       int              `json:"stock"`                    // Units available
	ImageURL    *string          `json:"image_url"`                // Optional http(s) URL
}

// Request struct for product update; omitted fields are left alone
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	ImageURL    *string          `json:"image_url"`
}

// ListProductsHandler returns products, newest first
func ListProductsHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := catalog.List(c.Request.Context(), pageRequest(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": toProducts(page.Products), "pagination": page.Pagination})
	}
}

// SearchProductsHandler filters products by text and price range
func SearchProductsHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		minPrice, err := queryDecimal(c, "minPrice") // Optional lower bound
		if err != nil {
			respondError(c, err)
			return
		}
		maxPrice, err := queryDecimal(c, "maxPrice") // Optional upper bound
		if err != nil {
			respondError(c, err)
			return
		}
		page, err := catalog.Search(c.Request.Context(), service.ProductFilter{
			Query:       c.Query("q"),
			MinPrice:    minPrice,
			MaxPrice:    maxPrice,
			PageRequest: pageRequest(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": toProducts(page.Products), "pagination": page.Pagination})
	}
}

// GetProductHandler returns one product
func GetProductHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id") // Parse product ID from path
		if err != nil {
			respondError(c, err)
			return
		}
		product, err := catalog.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": toProduct(*product)})
	}
}

// CreateProductHandler adds a product
func CreateProductHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		product, err := catalog.Create(c.Request.Context(), service.ProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       *req.Price,
			Stock:       req.Stock,
			ImageURL:    req.ImageURL,
		})
		if err != nil {
			respondError(c, err) // Validation or duplicate name
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": toProduct(*product)})
	}
}

// UpdateProductHandler applies a partial update
func UpdateProductHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req UpdateProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		product, err := catalog.Update(c.Request.Context(), id, service.ProductPatch{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			ImageURL:    req.ImageURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": toProduct(*product)})
	}
}

// DeleteProductHandler removes a product and its cart lines
func DeleteProductHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := catalog.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}

// LowStockHandler lists products at or below the threshold
func LowStockHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold := defaultLowStockThreshold // Default threshold
		if raw := c.Query("threshold"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, apperr.Invalid(map[string]string{"threshold": "Threshold must be a non-negative integer"}))
				return
			}
			threshold = v
		}
		products, err := catalog.LowStock(c.Request.Context(), threshold)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": toProducts(products), "threshold": threshold})
	}
}
