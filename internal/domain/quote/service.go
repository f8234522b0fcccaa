// internal/domain/quote/service.go
package quote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"github.com/your-org/breakroom-backend/internal/pkg/email"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the HTTP layer
var (
	ErrRequestNotFound = errors.New("quote request not found")
	ErrValidation      = errors.New("validation failed")
)

// Service handles quote request intake and triage
type Service struct {
	db       *gorm.DB
	config   *config.Config
	recorder audit.Recorder
	mailer   *email.Sender
	log      *logrus.Logger
}

// NewService creates a new quote service
func NewService(db *gorm.DB, cfg *config.Config, recorder audit.Recorder, mailer *email.Sender, log *logrus.Logger) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		recorder: recorder,
		mailer:   mailer,
		log:      log,
	}
}

// CreateRequest represents a public inquiry submission
type CreateRequest struct {
	Name          string     `json:"name" binding:"required"`
	Email         string     `json:"email" binding:"required,email"`
	Company       string     `json:"company"`
	Phone         string     `json:"phone"`
	Message       string     `json:"message"`
	PreferredDate *time.Time `json:"preferredDate"`
}

// UpdateRequest represents an admin triage update
type UpdateRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

// Create records a public inquiry and notifies the admin inbox. The
// notification is best-effort: a mail failure is logged but the inquiry is
// already saved and the caller still gets a success.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Request, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	inquiry := Request{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Company:       req.Company,
		Phone:         req.Phone,
		Message:       req.Message,
		PreferredDate: req.PreferredDate,
		Status:        StatusNew,
	}
	if err := s.db.WithContext(ctx).Create(&inquiry).Error; err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}

	s.notifyAdmin(&inquiry)

	entry := audit.Entry{
		Action:       audit.ActionQuoteCreate,
		ResourceType: "QuoteRequest",
		ResourceID:   strconv.FormatUint(uint64(inquiry.ID), 10),
		ResourceName: inquiry.Email,
	}
	s.recorder.Record(ctx, entry)

	return &inquiry, nil
}

// Get retrieves one inquiry
func (s *Service) Get(ctx context.Context, id uint) (*Request, error) {
	var inquiry Request
	if err := s.db.WithContext(ctx).First(&inquiry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to retrieve quote request: %w", err)
	}
	return &inquiry, nil
}

// ListAll retrieves inquiries newest-first, optionally by status (admin)
func (s *Service) ListAll(ctx context.Context, status string) ([]Request, error) {
	query := s.db.WithContext(ctx).Model(&Request{})
	if status != "" {
		if !validStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		query = query.Where("status = ?", status)
	}

	var inquiries []Request
	if err := query.Order("created_at DESC").Find(&inquiries).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve quote requests: %w", err)
	}
	return inquiries, nil
}

// Update applies an admin triage update
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest, actor audit.Actor) (*Request, error) {
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		updates["status"] = *req.Status
	}
	if req.AdminNotes != nil {
		updates["admin_notes"] = *req.AdminNotes
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no valid fields supplied", ErrValidation)
	}

	if err := s.db.WithContext(ctx).Model(inquiry).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update quote request: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionQuoteUpdate,
		ResourceType: "QuoteRequest",
		ResourceID:   strconv.FormatUint(uint64(inquiry.ID), 10),
		ResourceName: inquiry.Email,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return inquiry, nil
}

// Delete removes an inquiry (admin)
func (s *Service) Delete(ctx context.Context, id uint, actor audit.Actor) error {
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&Request{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete quote request: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionQuoteDelete,
		ResourceType: "QuoteRequest",
		ResourceID:   strconv.FormatUint(uint64(id), 10),
		ResourceName: inquiry.Email,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return nil
}

func (s *Service) notifyAdmin(inquiry *Request) {
	if s.mailer == nil || s.config.Email.AdminEmail == "" {
		return
	}

	body := fmt.Sprintf(`<html><body>
<p>New quote request from <strong>%s</strong> (%s).</p>
<p>Company: %s<br>Phone: %s</p>
<p>%s</p>
</body></html>`, inquiry.Name, inquiry.Email, inquiry.Company, inquiry.Phone, inquiry.Message)

	err := s.mailer.Send(&email.Message{
		To:          []string{s.config.Email.AdminEmail},
		Subject:     fmt.Sprintf("New quote request from %s", inquiry.Name),
		HTMLContent: body,
	})
	if err != nil {
		s.log.WithError(err).WithField("quote_request_id", inquiry.ID).
			Warn("failed to send quote notification email")
	}
}
