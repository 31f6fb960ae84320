package domain

import (
	"time" // Timestamps and durations

	"github.com/shopspring/decimal" // Exact decimal money
)

// Product Model
type Product struct {
	ID          uint            `gorm:"primaryKey"`                    // Primary key
	Name        string          `gorm:"size:255;uniqueIndex;not null"` // Unique product name
	Description *string         `gorm:"type:text"`                     // Optional description
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`   // Price with two fraction digits
	Stock       int             `gorm:"not null;default:0;index"`      // Units available
	ImageURL    *string         `gorm:"size:500"`                      // Optional image location
	CreatedAt   time.Time       `gorm:"index"`
	UpdatedAt   time.Time
}
