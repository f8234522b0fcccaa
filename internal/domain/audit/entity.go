// internal/domain/audit/entity.go
package audit

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Action identifies what was done. The set is closed; new actions must be
// added here so every consumer switches exhaustively.
type Action string

const (
	ActionLogin              Action = "LOGIN"
	ActionFailedLogin        Action = "FAILED_LOGIN"
	ActionRegister           Action = "REGISTER"
	ActionProfileUpdate      Action = "PROFILE_UPDATE"
	ActionUnauthorized       Action = "UNAUTHORIZED_ACCESS"
	ActionProductCreate      Action = "PRODUCT_CREATE"
	ActionProductUpdate      Action = "PRODUCT_UPDATE"
	ActionProductDelete      Action = "PRODUCT_DELETE"
	ActionOrderCreate        Action = "ORDER_CREATE"
	ActionOrderUpdate        Action = "ORDER_UPDATE"
	ActionOrderDelete        Action = "ORDER_DELETE"
	ActionOrderFulfill       Action = "ORDER_FULFILL"
	ActionInventoryCreate    Action = "INVENTORY_ITEM_CREATE"
	ActionInventoryScan      Action = "INVENTORY_ITEM_SCAN"
	ActionInventoryStatus    Action = "INVENTORY_ITEM_STATUS"
	ActionInventoryDelete    Action = "INVENTORY_ITEM_DELETE"
	ActionInvoiceUpload      Action = "INVOICE_UPLOAD"
	ActionInvoiceSend        Action = "INVOICE_SEND"
	ActionInvoiceDelete      Action = "INVOICE_DELETE"
	ActionIssueCreate        Action = "ISSUE_CREATE"
	ActionIssueUpdate        Action = "ISSUE_UPDATE"
	ActionIssueDelete        Action = "ISSUE_DELETE"
	ActionQuoteCreate        Action = "QUOTE_CREATE"
	ActionQuoteUpdate        Action = "QUOTE_UPDATE"
	ActionQuoteDelete        Action = "QUOTE_DELETE"
	ActionRetentionSweep     Action = "AUDIT_RETENTION_SWEEP"
)

// Outcome of the audited operation
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomePartial Outcome = "PARTIAL"
)

// ErrImmutable is returned for any attempt to modify a stored entry.
var ErrImmutable = errors.New("audit log entries are immutable")

// Entry is one immutable who-did-what-when record
type Entry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// WHO
	UserID    *uint  `gorm:"index" json:"userId"` // nil for anonymous actions
	UserEmail string `gorm:"size:255" json:"userEmail,omitempty"`
	UserRole  string `gorm:"size:20" json:"userRole,omitempty"`

	// WHAT
	Action       Action `gorm:"not null;size:50;index" json:"action"`
	ResourceType string `gorm:"size:50;index" json:"resourceType,omitempty"`
	ResourceID   string `gorm:"size:64;index" json:"resourceId,omitempty"`
	ResourceName string `gorm:"size:255" json:"resourceName,omitempty"`

	// HOW
	Method    string `gorm:"size:10" json:"method,omitempty"`
	Endpoint  string `gorm:"size:255" json:"endpoint,omitempty"`
	IPAddress string `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent string `gorm:"size:255" json:"userAgent,omitempty"`

	// OUTCOME
	Status     Outcome `gorm:"not null;size:10;default:'SUCCESS'" json:"status"`
	StatusCode int     `json:"statusCode,omitempty"`

	// DETAILS. Before/after snapshots are stored as JSON with secrets
	// already redacted by the caller.
	ChangesBefore string `gorm:"type:text" json:"changesBefore,omitempty"`
	ChangesAfter  string `gorm:"type:text" json:"changesAfter,omitempty"`
	ErrorMessage  string `gorm:"type:text" json:"errorMessage,omitempty"`
	Description   string `gorm:"type:text" json:"description,omitempty"`

	// WHEN
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// TableName overrides
func (Entry) TableName() string { return "audit_logs" }

// BeforeUpdate rejects in-place modification; entries are append-only.
func (Entry) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutable
}

// BeforeDelete rejects row deletes through the ORM. The retention sweep
// bypasses hooks deliberately (see Store.RetentionSweep).
func (Entry) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutable
}
