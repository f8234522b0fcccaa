// internal/domain/inventory/entity.go
package inventory

import (
	"time"

	"github.com/your-org/breakroom-backend/internal/domain/catalog"
	"github.com/your-org/breakroom-backend/internal/domain/order"
)

// Status tracks where a physical unit is in its lifecycle
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	StatusDamaged   Status = "damaged"
	StatusReturned  Status = "returned"
	StatusInTransit Status = "in-transit"
)

// AllStatuses enumerates every valid item status
var AllStatuses = []Status{StatusAvailable, StatusSold, StatusDamaged, StatusReturned, StatusInTransit}

// IsValid reports whether s is one of the enumerated statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusDamaged, StatusReturned, StatusInTransit:
		return true
	}
	return false
}

// ScanAction identifies why a scan record was appended
type ScanAction string

const (
	ScanActionCreated ScanAction = "created"
	ScanActionScanned ScanAction = "scanned"
	ScanActionMoved   ScanAction = "moved"
)

// Item represents one physical unit of a product, tracked by a unique
// human-readable code and a QR-encoded scan URL. The itemCode and qrCode
// unique indexes are the actual uniqueness guarantee; application-level
// pre-checks exist only for friendlier error messages.
type Item struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ProductID         uint       `gorm:"not null;index:idx_items_product_status" json:"productId"`
	ItemCode          string     `gorm:"uniqueIndex;not null;size:100" json:"itemCode"`
	QRCode            string     `gorm:"uniqueIndex;not null;size:255" json:"qrCode"`
	Status            Status     `gorm:"not null;size:20;default:'available';index:idx_items_product_status" json:"status"`
	Location          string     `gorm:"size:100;default:'warehouse'" json:"location"`
	AssignedOrderID   *uint      `gorm:"index" json:"assignedToOrder"`
	BatchNumber       string     `gorm:"size:50;index" json:"batchNumber,omitempty"`
	ManufacturingDate *time.Time `json:"manufacturingDate,omitempty"`
	ExpiryDate        *time.Time `json:"expiryDate,omitempty"`
	Notes             string     `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`

	// Relationships
	ScanHistory []ScanRecord `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"scanHistory,omitempty"`
}

// ScanRecord is one append-only scan history row. Records are never
// updated or removed while the item exists; display may cap how many are
// shown but storage never truncates.
type ScanRecord struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ItemID    uint       `gorm:"not null;index" json:"-"`
	ScannedAt time.Time  `gorm:"not null" json:"scannedAt"`
	ScannedBy string     `gorm:"size:255;default:'system'" json:"scannedBy"`
	Action    string     `gorm:"not null;size:30" json:"action"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
}

// TableName overrides
func (Item) TableName() string       { return "inventory_items" }
func (ScanRecord) TableName() string { return "inventory_scans" }

// ItemView is the resolved read model returned by scan/lookup endpoints:
// the item plus its product and assigned order, resolved at the boundary
// instead of leaving nullable reference chains to the caller.
type ItemView struct {
	Item
	Product       *catalog.Product `json:"product,omitempty"`
	AssignedOrder *order.Order     `json:"order,omitempty"`
}

// Stats holds per-status item counts for one product
type Stats struct {
	Available int `json:"available"`
	Sold      int `json:"sold"`
	Damaged   int `json:"damaged"`
	Returned  int `json:"returned"`
	InTransit int `json:"in-transit"`
	Total     int `json:"total"`
}
