package service

import (
	"context" // Request-scoped cancellation
	"errors"  // Error checks
	"time"    // Timestamps and durations

	"shop_system/internal/apperr" // Application errors
	"shop_system/internal/domain" // Domain models

	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Locking and upsert clauses
)

// CartService maintains one cart per user. Stock is compared against the
// product row at the moment of each mutation and is never reserved, so carts
// of different users may together ask for more than is in stock.
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// LineProduct is the product snapshot shown on a cart line.
type LineProduct struct {
	ID       uint
	Name     string
	Price    decimal.Decimal
	ImageURL *string
}

// CartLine is one cart item with its computed subtotal.
type CartLine struct {
	ID       uint
	Product  LineProduct
	Quantity int
	Subtotal decimal.Decimal
}

// CartView is a cart with lines and totals.
type CartView struct {
	ID            uint
	Items         []CartLine
	TotalItems    int
	TotalQuantity int
	TotalAmount   decimal.Decimal
}

// CartSummary is one row of the all-carts listing.
type CartSummary struct {
	ID          uint
	UserID      uint
	UserEmail   string
	ItemCount   int
	TotalAmount decimal.Decimal
	UpdatedAt   time.Time
}

// CartPage is a page of cart summaries.
type CartPage struct {
	Carts      []CartSummary
	Pagination Pagination
}

// GetOrCreateCart returns the user's cart, creating it on first access.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID uint) (*domain.Cart, error) {
	var cart *domain.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = findOrCreateCart(tx, userID, false)
		return err
	})
	if err != nil {
		return nil, apperr.FromDB(err, "Cart not found", "Cart already exists")
	}
	return cart, nil
}

// ViewCart loads the user's cart with product snapshots and exact totals.
func (s *CartService) ViewCart(ctx context.Context, userID uint) (*CartView, error) {
	var view *CartView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := findOrCreateCart(tx, userID, false)
		if err != nil {
			return err
		}
		var items []domain.CartItem
		if err := tx.Preload("Product").Where("cart_id = ?", cart.ID).Order("id").Find(&items).Error; err != nil {
			return err
		}
		view = buildView(cart.ID, items)
		return nil
	})
	if err != nil {
		return nil, apperr.FromDB(err, "Cart not found", "Cart already exists")
	}
	return view, nil
}

// AddItem adds quantity units of a product. Quantities accumulate on the
// existing line for that product; the accumulated total must fit in stock.
// The cart row is locked first and the line is read with a locking read, so
// concurrent adds to one cart apply one after another.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*domain.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if productID == 0 {
		return nil, apperr.Invalid(map[string]string{"product_id": "Product ID must be a positive integer"})
	}

	var item domain.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The cart lock comes before any plain read so that, under MySQL's
		// repeatable read, no snapshot predates the lock.
		cart, err := findOrCreateCart(tx, userID, true)
		if err != nil {
			return err
		}

		var product domain.Product
		if err := tx.Take(&product, productID).Error; err != nil {
			return apperr.FromDB(err, "Product not found", "")
		}
		if quantity > product.Stock {
			return apperr.New(apperr.InsufficientStock, "Insufficient stock")
		}

		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).
			Take(&item).Error
		switch {
		case err == nil:
			total := item.Quantity + quantity
			if total > product.Stock {
				return apperr.New(apperr.InsufficientStock, "Insufficient stock for total quantity")
			}
			if err := tx.Model(&domain.CartItem{}).Where("id = ?", item.ID).Update("quantity", total).Error; err != nil {
				return err
			}
			item.Quantity = total
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = domain.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: quantity}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		default:
			return err
		}
		item.Product = &product
		return touchCart(tx, cart.ID)
	})
	if err != nil {
		return nil, apperr.FromDB(err, "Cart not found", "Product already in cart")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   item.Quantity,
	}).Info("Cart item added")
	return &item, nil
}

// UpdateItem sets the quantity of one of the user's cart lines. Lines of
// other users are reported as not found.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (*domain.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var item *domain.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if item, err = ownedItem(tx, userID, itemID); err != nil {
			return err
		}
		if item.Product == nil || quantity > item.Product.Stock {
			return apperr.New(apperr.InsufficientStock, "Insufficient stock")
		}
		if err := tx.Model(&domain.CartItem{}).Where("id = ?", item.ID).Update("quantity", quantity).Error; err != nil {
			return err
		}
		item.Quantity = quantity
		return touchCart(tx, item.CartID)
	})
	if err != nil {
		return nil, apperr.FromDB(err, "Cart item not found", "")
	}
	return item, nil
}

// RemoveItem deletes one of the user's cart lines.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := ownedItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&domain.CartItem{}, item.ID).Error; err != nil {
			return err
		}
		return touchCart(tx, item.CartID)
	})
	return apperr.FromDB(err, "Cart item not found", "")
}

// ClearCart removes every line of the user's cart. A user without a cart row
// gets NotFound; an empty cart clears without error.
func (s *CartService) ClearCart(ctx context.Context, userID uint) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart domain.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).Take(&cart).Error; err != nil {
			return apperr.FromDB(err, "Cart not found", "")
		}
		res := tx.Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return touchCart(tx, cart.ID)
	})
	if err != nil {
		return 0, apperr.FromDB(err, "Cart not found", "")
	}
	return removed, nil
}

// ListAllCarts pages through every cart, most recently updated first.
func (s *CartService) ListAllCarts(ctx context.Context, page PageRequest) (*CartPage, error) {
	page = page.Normalize()
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&domain.Cart{}).Count(&total).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to count carts")
	}
	var carts []domain.Cart
	err := db.Preload("User").Preload("Items.Product").
		Order("updated_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&carts).Error
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch carts")
	}

	out := &CartPage{Carts: make([]CartSummary, 0, len(carts)), Pagination: newPagination(page, total)}
	for _, c := range carts {
		summary := CartSummary{
			ID:          c.ID,
			UserID:      c.UserID,
			ItemCount:   len(c.Items),
			TotalAmount: buildView(c.ID, c.Items).TotalAmount,
			UpdatedAt:   c.UpdatedAt,
		}
		if c.User != nil {
			summary.UserEmail = c.User.Email
		}
		out.Carts = append(out.Carts, summary)
	}
	return out, nil
}

// findOrCreateCart returns the cart of userID inside tx. Concurrent first
// accesses race on the unique user_id: the loser's insert is a no-op and both
// re-read the winner's row. lock takes a row lock on the cart so mutations of
// the same cart serialize.
func findOrCreateCart(tx *gorm.DB, userID uint, lock bool) (*domain.Cart, error) {
	var cart domain.Cart
	q := tx
	if lock {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("user_id = ?", userID).Take(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&domain.Cart{UserID: userID}).Error
	if err != nil {
		return nil, err
	}
	// Locking read sees rows committed after this transaction's snapshot.
	cart = domain.Cart{}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).Take(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func ownedItem(tx *gorm.DB, userID, itemID uint) (*domain.CartItem, error) {
	var item domain.CartItem
	err := tx.Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		Preload("Product").
		Take(&item).Error
	if err != nil {
		return nil, apperr.FromDB(err, "Cart item not found", "")
	}
	return &item, nil
}

func touchCart(tx *gorm.DB, cartID uint) error {
	return tx.Model(&domain.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error
}

func validateQuantity(q int) error {
	if q < 1 {
		return apperr.Invalid(map[string]string{"quantity": "Quantity must be a positive integer"})
	}
	return nil
}

func buildView(cartID uint, items []domain.CartItem) *CartView {
	view := &CartView{ID: cartID, Items: make([]CartLine, 0, len(items)), TotalAmount: decimal.Zero}
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		subtotal := it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		view.Items = append(view.Items, CartLine{
			ID: it.ID,
			Product: LineProduct{
				ID:       it.Product.ID,
				Name:     it.Product.Name,
				Price:    it.Product.Price,
				ImageURL: it.Product.ImageURL,
			},
			Quantity: it.Quantity,
			Subtotal: subtotal,
		})
		view.TotalQuantity += it.Quantity
		view.TotalAmount = view.TotalAmount.Add(subtotal)
	}
	view.TotalItems = len(view.Items)
	return view
}
