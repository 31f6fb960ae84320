package service

import (
	"context"      // Request-scoped cancellation
	"fmt"          // Cache keys
	"net/url"      // Image URL validation
	"strings"      // String helpers
	"unicode/utf8" // Rune counts

	"shop_system/internal/apperr" // Application errors
	"shop_system/internal/domain" // Domain models
	"shop_system/internal/utils"  // Catalog cache

	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

const (
	catalogNamespace  = "catalog"
	maxNameLen        = 255
	maxDescriptionLen = 1000
	maxImageURLLen    = 500
)

// CatalogService manages products. Public reads go through the cache, which
// every mutation invalidates by bumping the catalog version.
type CatalogService struct {
	db    *gorm.DB
	cache *utils.Cache
}

func NewCatalogService(db *gorm.DB, cache *utils.Cache) *CatalogService {
	return &CatalogService{db: db, cache: cache}
}

// ProductInput holds the fields of a new product.
type ProductInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	ImageURL    *string
}

// ProductPatch holds the fields to change; nil fields are left alone.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	ImageURL    *string
}

// ProductFilter narrows a product search. Bounds are inclusive.
type ProductFilter struct {
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	PageRequest
}

// ProductPage is a page of products.
type ProductPage struct {
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// Create adds a product; names are unique.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = trimmed(in.Description)
	fields := map[string]string{}
	checkName(fields, in.Name)
	checkDescription(fields, in.Description)
	checkPrice(fields, in.Price)
	checkStock(fields, in.Stock)
	checkImageURL(fields, in.ImageURL)
	if len(fields) > 0 {
		return nil, apperr.Invalid(fields)
	}

	product := domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Product{}).Where("name = ?", product.Name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflictf("Product with this name already exists")
		}
		return tx.Create(&product).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "Product not found", "Product with this name already exists")
	}

	s.invalidate(ctx)
	logrus.WithFields(logrus.Fields{"product_id": product.ID, "name": product.Name}).Info("Product created")
	return &product, nil
}

// Update applies patch to product id.
func (s *CatalogService) Update(ctx context.Context, id uint, patch ProductPatch) (*domain.Product, error) {
	updates := map[string]any{}
	fields := map[string]string{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		checkName(fields, name)
		updates["name"] = name
	}
	if patch.Description != nil {
		desc := trimmed(patch.Description)
		checkDescription(fields, desc)
		updates["description"] = *desc
	}
	if patch.Price != nil {
		checkPrice(fields, *patch.Price)
		updates["price"] = *patch.Price
	}
	if patch.Stock != nil {
		checkStock(fields, *patch.Stock)
		updates["stock"] = *patch.Stock
	}
	if patch.ImageURL != nil {
		checkImageURL(fields, patch.ImageURL)
		updates["image_url"] = *patch.ImageURL
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid(fields)
	}

	var product domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&product, id).Error; err != nil {
			return apperr.FromDB(err, "Product not found", "")
		}
		if name, ok := updates["name"].(string); ok && name != product.Name {
			var n int64
			if err := tx.Model(&domain.Product{}).Where("name = ? AND id <> ?", name, id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return apperr.Conflictf("Product name already exists")
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Take(&product, id).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "Product not found", "Product name already exists")
	}

	s.invalidate(ctx, id)
	logrus.WithFields(logrus.Fields{"product_id": id, "fields": len(updates)}).Info("Product updated")
	return &product, nil
}

// Delete removes a product and every cart line referencing it.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product domain.Product
		if err := tx.Take(&product, id).Error; err != nil {
			return apperr.FromDB(err, "Product not found", "")
		}
		// The foreign key cascades too; deleting here keeps the count and
		// covers schemas created without constraints.
		res := tx.Where("product_id = ?", id).Delete(&domain.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Delete(&domain.Product{}, id).Error
	})
	if err != nil {
		return apperr.FromDB(err, "Product not found", "")
	}

	s.invalidate(ctx, id)
	logrus.WithFields(logrus.Fields{"product_id": id, "cart_items_removed": removed}).Info("Product deleted")
	return nil
}

// Get returns one product.
func (s *CatalogService) Get(ctx context.Context, id uint) (*domain.Product, error) {
	key := s.key(ctx, fmt.Sprintf("product:%d", id))
	var product domain.Product
	if s.fromCache(ctx, key, &product) {
		return &product, nil
	}
	if err := s.db.WithContext(ctx).Take(&product, id).Error; err != nil {
		return nil, apperr.FromDB(err, "Product not found", "")
	}
	s.toCache(ctx, key, product)
	return &product, nil
}

// List pages through all products, newest first.
func (s *CatalogService) List(ctx context.Context, page PageRequest) (*ProductPage, error) {
	return s.Search(ctx, ProductFilter{PageRequest: page})
}

// Search matches Query case-insensitively against name and description and
// applies the inclusive price bounds, newest first.
func (s *CatalogService) Search(ctx context.Context, f ProductFilter) (*ProductPage, error) {
	f.PageRequest = f.PageRequest.Normalize()
	f.Query = strings.TrimSpace(f.Query)
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, apperr.Invalid(map[string]string{"minPrice": "minPrice must not exceed maxPrice"})
	}

	key := s.key(ctx, searchKey(f))
	var page ProductPage
	if s.fromCache(ctx, key, &page) {
		return &page, nil
	}

	db := s.db.WithContext(ctx)
	filtered := func() *gorm.DB {
		q := db.Model(&domain.Product{})
		if f.Query != "" {
			like := "%" + strings.ToLower(f.Query) + "%"
			q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
		}
		if f.MinPrice != nil {
			q = q.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			q = q.Where("price <= ?", *f.MaxPrice)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to count products")
	}
	products := []domain.Product{}
	err := filtered().Order("created_at DESC").Order("id DESC").
		Offset(f.Offset()).Limit(f.Limit).
		Find(&products).Error
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch products")
	}

	page = ProductPage{Products: products, Pagination: newPagination(f.PageRequest, total)}
	s.toCache(ctx, key, page)
	return &page, nil
}

// LowStock returns products with stock at or below threshold, lowest first.
// It always reads the store.
func (s *CatalogService) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold < 0 {
		return nil, apperr.Invalid(map[string]string{"threshold": "Threshold must be a non-negative integer"})
	}
	products := []domain.Product{}
	err := s.db.WithContext(ctx).
		Where("stock <= ?", threshold).
		Order("stock ASC").Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch products")
	}
	return products, nil
}

func searchKey(f ProductFilter) string {
	bound := func(d *decimal.Decimal) string {
		if d == nil {
			return ""
		}
		return d.String()
	}
	return fmt.Sprintf("search:q=%s:min=%s:max=%s:page=%d:limit=%d",
		strings.ToLower(f.Query), bound(f.MinPrice), bound(f.MaxPrice), f.Page, f.Limit)
}

// key prefixes suffix with the current catalog version. An unreachable cache
// yields an empty key, which disables caching for the call.
func (s *CatalogService) key(ctx context.Context, suffix string) string {
	v, err := s.cache.Version(ctx, catalogNamespace)
	if err != nil {
		logrus.WithError(err).Warn("Catalog cache version unavailable")
		return ""
	}
	return catalogNamespace + ":v" + v + ":" + suffix
}

func (s *CatalogService) fromCache(ctx context.Context, key string, dest any) bool {
	if key == "" {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Catalog cache read failed")
		return false
	}
	return found
}

func (s *CatalogService) toCache(ctx context.Context, key string, value any) {
	if key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Catalog cache write failed")
	}
}

// invalidate drops the cached entries of the given products, then bumps the
// catalog version so every listing is recomputed.
func (s *CatalogService) invalidate(ctx context.Context, ids ...uint) {
	for _, id := range ids {
		key := s.key(ctx, fmt.Sprintf("product:%d", id))
		if key == "" {
			break
		}
		if err := s.cache.Delete(ctx, key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Catalog cache delete failed")
		}
	}
	if _, err := s.cache.Bump(ctx, catalogNamespace); err != nil {
		logrus.WithError(err).Warn("Catalog cache invalidation failed")
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func checkName(fields map[string]string, name string) {
	if n := utf8.RuneCountInString(name); n < 1 || n > maxNameLen {
		fields["name"] = "Product name is required and must be less than 255 characters"
	}
}

func checkDescription(fields map[string]string, desc *string) {
	if desc != nil && utf8.RuneCountInString(*desc) > maxDescriptionLen {
		fields["description"] = "Description must be less than 1000 characters"
	}
}

// checkPrice accepts non-negative prices with at most two fraction digits.
func checkPrice(fields map[string]string, price decimal.Decimal) {
	switch {
	case price.IsNegative():
		fields["price"] = "Price must be a positive number"
	case !price.Equal(price.Truncate(2)):
		fields["price"] = "Price must have at most two decimal places"
	case price.GreaterThanOrEqual(decimal.New(1, 8)):
		fields["price"] = "Price is too large"
	}
}

func checkStock(fields map[string]string, stock int) {
	if stock < 0 {
		fields["stock"] = "Stock must be a non-negative integer"
	}
}

func checkImageURL(fields map[string]string, raw *string) {
	if raw == nil {
		return
	}
	u, err := url.ParseRequestURI(*raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || len(*raw) > maxImageURLLen {
		fields["image_url"] = "Image URL must be a valid URL"
	}
}
