// internal/domain/quote/entity.go
package quote

import (
	"time"
)

// Request statuses
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusScheduled = "scheduled"
	StatusClosed    = "closed"
)

// Request is a public quote/consultation inquiry. Intake is unauthenticated;
// everything else is admin-only.
type Request struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null;size:255" json:"name"`
	Email         string     `gorm:"not null;size:255;index" json:"email"`
	Company       string     `gorm:"size:255" json:"company,omitempty"`
	Phone         string     `gorm:"size:50" json:"phone,omitempty"`
	Message       string     `gorm:"type:text" json:"message"`
	PreferredDate *time.Time `json:"preferredDate,omitempty"`
	Status        string     `gorm:"not null;size:20;default:'new';index" json:"status"`
	AdminNotes    string     `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TableName overrides
func (Request) TableName() string { return "quote_requests" }

func validStatus(status string) bool {
	switch status {
	case StatusNew, StatusContacted, StatusScheduled, StatusClosed:
		return true
	}
	return false
}
