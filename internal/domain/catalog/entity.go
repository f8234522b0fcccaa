// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Product represents one catalog entry. Stock is the live unit count and
// must never go negative; it is mutated only by admin edits and by the
// fulfillment engine's conditional decrements.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:100;default:'General'" json:"category"`
	Price       int64          `gorm:"not null" json:"price"` // In cents
	Stock       int            `gorm:"not null;default:0" json:"stock"`
	Unit        string         `gorm:"size:50;default:'unit'" json:"unit"` // e.g. 'bag', 'box', 'case'
	SKU         *string        `gorm:"uniqueIndex;size:100" json:"sku,omitempty"`
	IsActive    bool           `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string { return "products" }

// IsInStock reports whether any units remain
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

// GetFormattedPrice returns the price in dollars
func (p *Product) GetFormattedPrice() float64 {
	return float64(p.Price) / 100
}
