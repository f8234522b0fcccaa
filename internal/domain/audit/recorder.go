// internal/domain/audit/recorder.go
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recorder is the side-effect capability injected into every service that
// mutates state. Record is fire-and-forget: implementations must never
// surface a failure to the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Store persists audit entries and answers admin queries
type Store struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewStore creates a new audit store
func NewStore(db *gorm.DB, log *logrus.Logger) *Store {
	return &Store{
		db:  db,
		log: log,
	}
}

// Record writes one entry. A write failure is logged locally and swallowed;
// audit logging must never fail or roll back the primary operation.
func (s *Store) Record(ctx context.Context, entry Entry) {
	if entry.Status == "" {
		entry.Status = OutcomeSuccess
	}
	if meta, ok := MetaFrom(ctx); ok {
		meta.apply(&entry)
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.WithFields(logrus.Fields{
			"action":        entry.Action,
			"resource_type": entry.ResourceType,
			"resource_id":   entry.ResourceID,
		}).WithError(err).Error("failed to write audit log entry")
	}
}

// ListRequest filters the admin audit log listing
type ListRequest struct {
	Action       string `form:"action"`
	ResourceType string `form:"resource_type"`
	ResourceID   string `form:"resource_id"`
	UserID       uint   `form:"user_id"`
	From         string `form:"from"`
	To           string `form:"to"`
	Page         int    `form:"page,default=1"`
	Limit        int    `form:"limit,default=50"`
}

// List retrieves entries newest-first with optional filters
func (s *Store) List(ctx context.Context, req *ListRequest) ([]Entry, int64, error) {
	query := s.db.WithContext(ctx).Model(&Entry{})

	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.ResourceType != "" {
		query = query.Where("resource_type = ?", req.ResourceType)
	}
	if req.ResourceID != "" {
		query = query.Where("resource_id = ?", req.ResourceID)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.From != "" {
		query = query.Where("created_at >= ?", req.From)
	}
	if req.To != "" {
		query = query.Where("created_at <= ?", req.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	var entries []Entry
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve audit entries: %w", err)
	}

	return entries, total, nil
}

// RetentionSweep bulk-deletes entries older than the cutoff. This is the
// only sanctioned delete path; it goes through raw SQL so the immutability
// hooks do not apply.
func (s *Store) RetentionSweep(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	result := s.db.WithContext(ctx).Exec("DELETE FROM audit_logs WHERE created_at < ?", cutoff)
	if result.Error != nil {
		return 0, fmt.Errorf("audit retention sweep failed: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.log.WithFields(logrus.Fields{
			"removed": result.RowsAffected,
			"cutoff":  cutoff,
		}).Info("audit retention sweep completed")

		// Leave a trace of the sweep itself in the log it just trimmed
		s.Record(ctx, Entry{
			Action:       ActionRetentionSweep,
			ResourceType: "AuditLog",
			Description:  fmt.Sprintf("Removed %d audit entries older than %s", result.RowsAffected, cutoff.Format(time.RFC3339)),
		})
	}

	return result.RowsAffected, nil
}
