// internal/domain/invoice/service.go
package invoice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"github.com/your-org/breakroom-backend/internal/domain/user"
	"github.com/your-org/breakroom-backend/internal/pkg/email"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the HTTP layer
var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrValidation      = errors.New("validation failed")
)

// Service handles invoice business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	recorder audit.Recorder
	mailer   *email.Sender
}

// NewService creates a new invoice service
func NewService(db *gorm.DB, cfg *config.Config, recorder audit.Recorder, mailer *email.Sender) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		recorder: recorder,
		mailer:   mailer,
	}
}

// Line is one billed position passed in by the fulfillment engine, priced
// at decrement time.
type Line struct {
	ProductID   uint
	ProductName string
	Quantity    int
	UnitPrice   int64
}

// CreateForOrder writes a generated invoice using the caller's transaction
// handle, so an aborted fulfillment leaves no invoice behind. totalAmount
// is the order's creation-time total; line prices are the decrement-time
// snapshot and may legitimately disagree with it.
func (s *Service) CreateForOrder(tx *gorm.DB, orderID, customerID uint, totalAmount int64, lines []Line) (*Invoice, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: invoice needs at least one line", ErrValidation)
	}

	inv := Invoice{
		InvoiceNumber: generateInvoiceNumber(orderID),
		OrderID:       &orderID,
		CustomerID:    customerID,
		TotalAmount:   totalAmount,
	}
	for _, line := range lines {
		inv.Items = append(inv.Items, InvoiceItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.UnitPrice * int64(line.Quantity),
		})
	}

	if err := tx.Create(&inv).Error; err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return &inv, nil
}

// UploadRequest represents an externally produced invoice PDF being
// attached to a customer account
type UploadRequest struct {
	CustomerID  uint
	OrderID     *uint
	TotalAmount int64
	FileName    string
	FilePath    string
}

// Upload records an uploaded invoice file
func (s *Service) Upload(ctx context.Context, req *UploadRequest, actor audit.Actor) (*Invoice, error) {
	if req.CustomerID == 0 {
		return nil, fmt.Errorf("%w: customer is required", ErrValidation)
	}
	if req.FilePath == "" {
		return nil, fmt.Errorf("%w: invoice file is required", ErrValidation)
	}

	inv := Invoice{
		InvoiceNumber: generateInvoiceNumber(0),
		OrderID:       req.OrderID,
		CustomerID:    req.CustomerID,
		TotalAmount:   req.TotalAmount,
		FileName:      req.FileName,
		FilePath:      req.FilePath,
	}
	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return nil, fmt.Errorf("failed to record invoice: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionInvoiceUpload,
		ResourceType: "Invoice",
		ResourceID:   strconv.FormatUint(uint64(inv.ID), 10),
		ResourceName: inv.InvoiceNumber,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return &inv, nil
}

// GetInvoice retrieves one invoice with its lines
func (s *Service) GetInvoice(ctx context.Context, id uint) (*Invoice, error) {
	var inv Invoice
	err := s.db.WithContext(ctx).Preload("Items").First(&inv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to retrieve invoice: %w", err)
	}
	return &inv, nil
}

// ListForCustomer retrieves a customer's invoices newest-first
func (s *Service) ListForCustomer(ctx context.Context, customerID uint) ([]Invoice, error) {
	var invoices []Invoice
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve invoices: %w", err)
	}
	return invoices, nil
}

// ListAll retrieves every invoice newest-first (admin)
func (s *Service) ListAll(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	err := s.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve invoices: %w", err)
	}
	return invoices, nil
}

// Send emails the invoice to its customer and marks it sent. Sending again
// re-delivers and refreshes the sent stamp.
func (s *Service) Send(ctx context.Context, id uint, actor audit.Actor) (*Invoice, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	var customer user.User
	if err := s.db.WithContext(ctx).First(&customer, inv.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice customer no longer exists", ErrValidation)
		}
		return nil, fmt.Errorf("failed to resolve invoice customer: %w", err)
	}

	msg := &email.Message{
		To:          []string{customer.Email},
		Subject:     fmt.Sprintf("Invoice %s from %s", inv.InvoiceNumber, s.config.Email.FromName),
		HTMLContent: renderInvoiceEmail(inv, &customer),
	}
	if inv.FilePath != "" {
		data, err := os.ReadFile(inv.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read invoice file: %w", err)
		}
		msg.Attachments = append(msg.Attachments, email.Attachment{
			Filename:    inv.FileName,
			ContentType: "application/pdf",
			Data:        data,
		})
	}
	if err := s.mailer.Send(msg); err != nil {
		return nil, fmt.Errorf("failed to send invoice email: %w", err)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"is_sent": true,
		"sent_at": now,
		"sent_by": actor.Email,
	}
	if err := s.db.WithContext(ctx).Model(inv).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to mark invoice sent: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionInvoiceSend,
		ResourceType: "Invoice",
		ResourceID:   strconv.FormatUint(uint64(inv.ID), 10),
		ResourceName: inv.InvoiceNumber,
		Description:  fmt.Sprintf("sent to %s", customer.Email),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return inv, nil
}

// Delete removes an invoice and its lines. Any uploaded file stays on disk;
// cleanup is an operational concern.
func (s *Service) Delete(ctx context.Context, id uint, actor audit.Actor) error {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("invoice_id = ?", id).Delete(&InvoiceItem{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete invoice lines: %w", err)
	}
	if err := tx.Delete(&Invoice{}, id).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit invoice deletion: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionInvoiceDelete,
		ResourceType: "Invoice",
		ResourceID:   strconv.FormatUint(uint64(id), 10),
		ResourceName: inv.InvoiceNumber,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return nil
}

// generateInvoiceNumber builds a unique, sortable invoice number. The
// unique index catches the unlikely same-nanosecond collision.
func generateInvoiceNumber(orderID uint) string {
	return fmt.Sprintf("INV-%d-%d", time.Now().UTC().UnixNano(), orderID)
}

func renderInvoiceEmail(inv *Invoice, customer *user.User) string {
	rows := ""
	for _, item := range inv.Items {
		rows += fmt.Sprintf(
			"<tr><td>%s</td><td>%d</td><td>$%.2f</td><td>$%.2f</td></tr>",
			item.ProductName, item.Quantity,
			float64(item.UnitPrice)/100, float64(item.LineTotal)/100,
		)
	}
	return fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Please find your invoice <strong>%s</strong> below.</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Item</th><th>Qty</th><th>Unit Price</th><th>Total</th></tr>
%s
<tr><td colspan="3"><strong>Total</strong></td><td><strong>$%.2f</strong></td></tr>
</table>
<p>Thank you for your business.</p>
</body></html>`, customer.Name, inv.InvoiceNumber, rows, inv.GetFormattedTotal())
}
