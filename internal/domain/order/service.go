// internal/domain/order/service.go
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"github.com/your-org/breakroom-backend/internal/domain/catalog"
	"github.com/your-org/breakroom-backend/internal/domain/invoice"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the HTTP layer
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrAlreadyFulfilled = errors.New("order has already been fulfilled")
	ErrStatusReserved   = errors.New("fulfilled status can only be set by fulfillment")
	ErrValidation       = errors.New("validation failed")
)

// ProductGoneError reports a line item whose product was deleted after the
// order was placed. Fulfillment refuses the whole order.
type ProductGoneError struct {
	ProductID uint
}

func (e *ProductGoneError) Error() string {
	return fmt.Sprintf("product %d no longer exists", e.ProductID)
}

// InsufficientStockError reports the first line item that cannot be covered
// by current stock. No stock is mutated when this is returned.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// Service handles the order ledger and the fulfillment engine
type Service struct {
	db       *gorm.DB
	config   *config.Config
	recorder audit.Recorder
	invoices *invoice.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, recorder audit.Recorder, invoices *invoice.Service) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		recorder: recorder,
		invoices: invoices,
	}
}

// CreateOrderLine is one requested position
type CreateOrderLine struct {
	ProductID uint `json:"product" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CreateOrderRequest represents order placement data
type CreateOrderRequest struct {
	Items []CreateOrderLine `json:"items" binding:"required"`
	Notes string            `json:"notes"`
}

// FulfillResult is what a successful fulfillment returns
type FulfillResult struct {
	Order   *Order           `json:"order"`
	Invoice *invoice.Invoice `json:"invoice"`
}

// CreateOrder places an order, pricing every line against the catalog in
// one batch read. A line whose product has vanished is kept but priced at
// zero and contributes nothing to the total; the total is a creation-time
// snapshot and is never recomputed afterwards.
func (s *Service) CreateOrder(ctx context.Context, customerID uint, req *CreateOrderRequest, actor audit.Actor) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	ids := make([]uint, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		ids = append(ids, line.ProductID)
	}

	var products []catalog.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to price order: %w", err)
	}
	priceByID := make(map[uint]int64, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.Price
	}

	placed := Order{
		CustomerID: customerID,
		Status:     StatusPending,
		Notes:      req.Notes,
	}
	for _, line := range req.Items {
		unitPrice := priceByID[line.ProductID] // zero when the product is gone
		placed.Items = append(placed.Items, OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
		placed.TotalPrice += unitPrice * int64(line.Quantity)
	}

	if err := s.db.WithContext(ctx).Create(&placed).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionOrderCreate,
		ResourceType: "Order",
		ResourceID:   strconv.FormatUint(uint64(placed.ID), 10),
		ChangesAfter: marshalChanges(placed),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return &placed, nil
}

// GetOrder retrieves one order with its line items
func (s *Service) GetOrder(ctx context.Context, id uint) (*Order, error) {
	var placed Order
	err := s.db.WithContext(ctx).Preload("Items").First(&placed, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &placed, nil
}

// ListForCustomer retrieves a customer's orders newest-first
func (s *Service) ListForCustomer(ctx context.Context, customerID uint) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// ListAll retrieves every order newest-first (admin)
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// SetStatus updates the workflow label on an order. The fulfilled status is
// reserved for the fulfillment engine so it always implies decremented
// stock and a generated invoice.
func (s *Service) SetStatus(ctx context.Context, id uint, status string, actor audit.Actor) (*Order, error) {
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrValidation)
	}
	if status == StatusFulfilled {
		return nil, ErrStatusReserved
	}

	placed, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if placed.IsFulfilled() {
		return nil, ErrAlreadyFulfilled
	}
	previous := placed.Status

	if err := s.db.WithContext(ctx).Model(placed).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	entry := audit.Entry{
		Action:        audit.ActionOrderUpdate,
		ResourceType:  "Order",
		ResourceID:    strconv.FormatUint(uint64(placed.ID), 10),
		ChangesBefore: marshalChanges(map[string]interface{}{"status": previous}),
		ChangesAfter:  marshalChanges(map[string]interface{}{"status": status}),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return placed, nil
}

// DeleteOrder removes an order and its line items
func (s *Service) DeleteOrder(ctx context.Context, id uint, actor audit.Actor) error {
	placed, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("order_id = ?", id).Delete(&OrderItem{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	if err := tx.Delete(&Order{}, id).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}

	entry := audit.Entry{
		Action:        audit.ActionOrderDelete,
		ResourceType:  "Order",
		ResourceID:    strconv.FormatUint(uint64(id), 10),
		ChangesBefore: marshalChanges(placed),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return nil
}

// Fulfill moves an order to the fulfilled state: it checks every line
// against current stock, then in one transaction decrements stock for all
// lines, flips the status, and writes the invoice with decrement-time
// prices. Any failure after mutation begins rolls everything back; the
// engine never retries on its own.
func (s *Service) Fulfill(ctx context.Context, id uint, actor audit.Actor) (*FulfillResult, error) {
	placed, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if placed.IsFulfilled() {
		s.recordFulfillFailure(ctx, placed, actor, ErrAlreadyFulfilled)
		return nil, ErrAlreadyFulfilled
	}

	// Check-all-then-act: no mutation happens until every line passes.
	// The conditional decrements inside the transaction remain the actual
	// race defense; this pass exists to fail cheaply and name the product.
	ids := make([]uint, 0, len(placed.Items))
	for _, line := range placed.Items {
		ids = append(ids, line.ProductID)
	}
	var products []catalog.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load order products: %w", err)
	}
	productByID := make(map[uint]*catalog.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}
	for _, line := range placed.Items {
		product, ok := productByID[line.ProductID]
		if !ok {
			failure := &ProductGoneError{ProductID: line.ProductID}
			s.recordFulfillFailure(ctx, placed, actor, failure)
			return nil, failure
		}
		if product.Stock < line.Quantity {
			failure := &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
			s.recordFulfillFailure(ctx, placed, actor, failure)
			return nil, failure
		}
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	lines := make([]invoice.Line, 0, len(placed.Items))
	for _, line := range placed.Items {
		result := tx.Model(&catalog.Product{}).
			Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
		if result.Error != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to decrement stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			// A concurrent fulfillment won the race between the pre-check
			// and this decrement. Re-read to name the cause.
			failure := s.classifyDecrementFailure(ctx, line)
			s.recordFulfillFailure(ctx, placed, actor, failure)
			return nil, failure
		}

		// Logic-bug guard: the conditional update above must keep stock
		// non-negative, but a violation rolls back rather than ships.
		var current catalog.Product
		if err := tx.First(&current, line.ProductID).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to re-check stock: %w", err)
		}
		if current.Stock < 0 {
			tx.Rollback()
			return nil, fmt.Errorf("stock for product %d went negative during fulfillment", line.ProductID)
		}

		lines = append(lines, invoice.Line{
			ProductID:   current.ID,
			ProductName: current.Name,
			Quantity:    line.Quantity,
			UnitPrice:   current.Price, // decrement-time price
		})
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       StatusFulfilled,
		"fulfilled_at": now,
		"fulfilled_by": actor.Email,
	}
	// Conditional flip, same discipline as the stock decrements: a
	// competing fulfillment that committed after our pre-check matches
	// zero rows here and everything above rolls back.
	flip := tx.Model(&Order{}).
		Where("id = ? AND status <> ?", placed.ID, StatusFulfilled).
		Updates(updates)
	if flip.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to mark order fulfilled: %w", flip.Error)
	}
	if flip.RowsAffected == 0 {
		tx.Rollback()
		s.recordFulfillFailure(ctx, placed, actor, ErrAlreadyFulfilled)
		return nil, ErrAlreadyFulfilled
	}

	generated, err := s.invoices.CreateForOrder(tx, placed.ID, placed.CustomerID, placed.TotalPrice, lines)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit fulfillment: %w", err)
	}

	placed.Status = StatusFulfilled
	placed.FulfilledAt = &now
	placed.FulfilledBy = actor.Email

	entry := audit.Entry{
		Action:       audit.ActionOrderFulfill,
		ResourceType: "Order",
		ResourceID:   strconv.FormatUint(uint64(placed.ID), 10),
		Description:  fmt.Sprintf("invoice %s generated", generated.InvoiceNumber),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return &FulfillResult{Order: placed, Invoice: generated}, nil
}

// classifyDecrementFailure re-reads a product after a failed conditional
// decrement to distinguish a vanished product from a stock shortfall.
func (s *Service) classifyDecrementFailure(ctx context.Context, line OrderItem) error {
	var product catalog.Product
	err := s.db.WithContext(ctx).First(&product, line.ProductID).Error
	if err != nil {
		return &ProductGoneError{ProductID: line.ProductID}
	}
	return &InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   line.Quantity,
		Available:   product.Stock,
	}
}

func (s *Service) recordFulfillFailure(ctx context.Context, placed *Order, actor audit.Actor, cause error) {
	entry := audit.Entry{
		Action:       audit.ActionOrderFulfill,
		ResourceType: "Order",
		ResourceID:   strconv.FormatUint(uint64(placed.ID), 10),
		Status:       audit.OutcomeFailure,
		ErrorMessage: cause.Error(),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)
}

func marshalChanges(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
