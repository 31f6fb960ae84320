package domain

import "time" // Timestamps and durations

// Cart Model, one per user
type Cart struct {
	ID        uint       `gorm:"primaryKey"`           // Primary key
	UserID    uint       `gorm:"uniqueIndex;not null"` // Owner, unique so a user has at most one cart
	User      *User      `gorm:"constraint:OnDelete:CASCADE;"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

// CartItem Model, a product/quantity pair inside a cart
type CartItem struct {
	ID        uint     `gorm:"primaryKey"`                                  // Primary key
	CartID    uint     `gorm:"not null;uniqueIndex:idx_cart_product"`       // Owning cart
	ProductID uint     `gorm:"not null;uniqueIndex:idx_cart_product;index"` // Referenced product
	Product   *Product `gorm:"constraint:OnDelete:CASCADE;"`
	Quantity  int      `gorm:"not null;default:1"` // Requested units, at least 1
	CreatedAt time.Time
	UpdatedAt time.Time
}
