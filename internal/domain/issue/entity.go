// internal/domain/issue/entity.go
package issue

import (
	"time"
)

// Report statuses
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
)

// Report is a customer-filed problem report (damaged delivery, billing
// question, equipment fault)
type Report struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CustomerID  uint       `gorm:"not null;index" json:"customer"`
	Subject     string     `gorm:"not null;size:255" json:"subject"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Category    string     `gorm:"size:100;default:'general'" json:"category"`
	Status      string     `gorm:"not null;size:20;default:'open';index" json:"status"`
	AdminNotes  string     `gorm:"type:text" json:"adminNotes,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName overrides
func (Report) TableName() string { return "issue_reports" }

func validStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}
