// internal/domain/order/entity.go
package order

import (
	"time"
)

// Order statuses. StatusFulfilled is reserved: it is only ever written by
// the fulfillment engine, never by the generic status update path, so a
// fulfilled order always has stock decremented and an invoice behind it.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusFulfilled  = "Fulfilled"
)

// Order represents a customer purchase. TotalPrice is snapshotted from the
// catalog at creation time and is never recomputed when products change.
type Order struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CustomerID  uint       `gorm:"not null;index" json:"customer"`
	TotalPrice  int64      `gorm:"not null" json:"totalPrice"` // In cents
	Status      string     `gorm:"not null;size:20;default:'pending';index" json:"status"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	FulfilledAt *time.Time `json:"fulfilledAt,omitempty"`
	FulfilledBy string     `gorm:"size:255" json:"fulfilledBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is one ordered position. UnitPrice is the catalog price at
// order creation; a product missing at creation time is stored with a zero
// price and contributes nothing to the total.
type OrderItem struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	OrderID   uint  `gorm:"not null;index" json:"-"`
	ProductID uint  `gorm:"not null" json:"product"`
	Quantity  int   `gorm:"not null" json:"quantity"`
	UnitPrice int64 `gorm:"not null;default:0" json:"unitPrice"` // In cents
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// IsFulfilled reports whether the order went through fulfillment
func (o *Order) IsFulfilled() bool {
	return o.Status == StatusFulfilled
}

// GetFormattedTotal returns the total in dollars
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalPrice) / 100
}
