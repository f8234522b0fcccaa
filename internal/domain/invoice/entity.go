// internal/domain/invoice/entity.go
package invoice

import (
	"time"
)

// Invoice represents a billing document. Generated invoices are created
// inside the fulfillment transaction with the prices charged at decrement
// time; uploaded invoices are external PDFs attached by an admin.
type Invoice struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	InvoiceNumber string     `gorm:"uniqueIndex;not null;size:50" json:"invoiceNumber"`
	OrderID       *uint      `gorm:"index" json:"order,omitempty"`
	CustomerID    uint       `gorm:"not null;index" json:"customer"`
	TotalAmount   int64      `gorm:"not null" json:"totalAmount"` // In cents
	FileName      string     `gorm:"size:255" json:"fileName,omitempty"`
	FilePath      string     `gorm:"size:512" json:"-"`
	IsSent        bool       `gorm:"default:false" json:"isSent"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
	SentBy        string     `gorm:"size:255" json:"sentBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	// Relationships
	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// InvoiceItem is one billed line. Name and unit price are copied from the
// product at fulfillment time so later catalog edits never change past
// invoices.
type InvoiceItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	InvoiceID   uint   `gorm:"not null;index" json:"-"`
	ProductID   uint   `gorm:"not null" json:"product"`
	ProductName string `gorm:"not null;size:255" json:"productName"`
	Quantity    int    `gorm:"not null" json:"quantity"`
	UnitPrice   int64  `gorm:"not null" json:"unitPrice"` // In cents
	LineTotal   int64  `gorm:"not null" json:"lineTotal"` // In cents
}

// TableName overrides
func (Invoice) TableName() string     { return "invoices" }
func (InvoiceItem) TableName() string { return "invoice_items" }

// GetFormattedTotal returns the total in dollars
func (i *Invoice) GetFormattedTotal() float64 {
	return float64(i.TotalAmount) / 100
}
