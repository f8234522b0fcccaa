// internal/domain/issue/service.go
package issue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the HTTP layer
var (
	ErrReportNotFound = errors.New("issue report not found")
	ErrValidation     = errors.New("validation failed")
)

// Service handles issue report business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	recorder audit.Recorder
}

// NewService creates a new issue service
func NewService(db *gorm.DB, cfg *config.Config, recorder audit.Recorder) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		recorder: recorder,
	}
}

// CreateReportRequest represents a customer problem report
type CreateReportRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
}

// UpdateReportRequest represents an admin triage update
type UpdateReportRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

// CreateReport files a new report for the customer
func (s *Service) CreateReport(ctx context.Context, customerID uint, req *CreateReportRequest, actor audit.Actor) (*Report, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}

	report := Report{
		CustomerID:  customerID,
		Subject:     strings.TrimSpace(req.Subject),
		Description: req.Description,
		Category:    req.Category,
		Status:      StatusOpen,
	}
	if report.Category == "" {
		report.Category = "general"
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create issue report: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionIssueCreate,
		ResourceType: "IssueReport",
		ResourceID:   strconv.FormatUint(uint64(report.ID), 10),
		ResourceName: report.Subject,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return &report, nil
}

// GetReport retrieves one report
func (s *Service) GetReport(ctx context.Context, id uint) (*Report, error) {
	var report Report
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to retrieve issue report: %w", err)
	}
	return &report, nil
}

// ListForCustomer retrieves a customer's own reports newest-first
func (s *Service) ListForCustomer(ctx context.Context, customerID uint) ([]Report, error) {
	var reports []Report
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve issue reports: %w", err)
	}
	return reports, nil
}

// ListAll retrieves every report newest-first, optionally by status (admin)
func (s *Service) ListAll(ctx context.Context, status string) ([]Report, error) {
	query := s.db.WithContext(ctx).Model(&Report{})
	if status != "" {
		if !validStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		query = query.Where("status = ?", status)
	}

	var reports []Report
	if err := query.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve issue reports: %w", err)
	}
	return reports, nil
}

// UpdateReport applies an admin triage update
func (s *Service) UpdateReport(ctx context.Context, id uint, req *UpdateReportRequest, actor audit.Actor) (*Report, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		updates["status"] = *req.Status
		if *req.Status == StatusResolved {
			updates["resolved_at"] = time.Now().UTC()
		}
	}
	if req.AdminNotes != nil {
		updates["admin_notes"] = *req.AdminNotes
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no valid fields supplied", ErrValidation)
	}

	if err := s.db.WithContext(ctx).Model(report).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update issue report: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionIssueUpdate,
		ResourceType: "IssueReport",
		ResourceID:   strconv.FormatUint(uint64(report.ID), 10),
		ResourceName: report.Subject,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return report, nil
}

// DeleteReport removes a report (admin)
func (s *Service) DeleteReport(ctx context.Context, id uint, actor audit.Actor) error {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&Report{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete issue report: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionIssueDelete,
		ResourceType: "IssueReport",
		ResourceID:   strconv.FormatUint(uint64(id), 10),
		ResourceName: report.Subject,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return nil
}
