// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"github.com/your-org/breakroom-backend/internal/domain/catalog"
	"github.com/your-org/breakroom-backend/internal/domain/order"
	"github.com/your-org/breakroom-backend/internal/pkg/qr"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the HTTP layer
var (
	ErrItemNotFound  = errors.New("inventory item not found")
	ErrDuplicateCode = errors.New("item code already exists")
	ErrInvalidStatus = errors.New("invalid item status")
	ErrValidation    = errors.New("validation failed")
)

// Service handles physical inventory item business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	recorder audit.Recorder
	qr       *qr.Generator
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, cfg *config.Config, recorder audit.Recorder, generator *qr.Generator) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		recorder: recorder,
		qr:       generator,
	}
}

// CreateItemRequest represents single item registration data
type CreateItemRequest struct {
	ProductID         uint       `json:"productId" binding:"required"`
	ItemCode          string     `json:"itemCode" binding:"required"`
	Location          string     `json:"location"`
	BatchNumber       string     `json:"batchNumber"`
	ManufacturingDate *time.Time `json:"manufacturingDate"`
	ExpiryDate        *time.Time `json:"expiryDate"`
	Notes             string     `json:"notes"`
}

// CreateBatchRequest represents bulk item registration data. All items in
// the batch share the product and metadata; only the codes vary.
type CreateBatchRequest struct {
	ProductID         uint       `json:"productId" binding:"required"`
	ItemCodes         []string   `json:"itemCodes" binding:"required"`
	Location          string     `json:"location"`
	BatchNumber       string     `json:"batchNumber"`
	ManufacturingDate *time.Time `json:"manufacturingDate"`
	ExpiryDate        *time.Time `json:"expiryDate"`
}

// BatchFailure reports one code that could not be registered
type BatchFailure struct {
	ItemCode string `json:"itemCode"`
	Reason   string `json:"reason"`
}

// BatchResult summarizes a best-effort bulk registration
type BatchResult struct {
	Created []Item         `json:"created"`
	Failed  []BatchFailure `json:"failed,omitempty"`
}

// CreateItem registers one physical item and stamps its QR scan URL.
// The unique index on item_code is the real duplicate guard; the lookup
// beforehand just produces a cleaner error for the common case.
func (s *Service) CreateItem(ctx context.Context, req *CreateItemRequest, actor audit.Actor) (*Item, error) {
	code := strings.TrimSpace(req.ItemCode)
	if code == "" {
		return nil, fmt.Errorf("%w: item code is required", ErrValidation)
	}

	var product catalog.Product
	if err := s.db.WithContext(ctx).First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	item := Item{
		ProductID:         req.ProductID,
		ItemCode:          code,
		QRCode:            s.qr.ScanURL(code),
		Status:            StatusAvailable,
		Location:          req.Location,
		BatchNumber:       req.BatchNumber,
		ManufacturingDate: req.ManufacturingDate,
		ExpiryDate:        req.ExpiryDate,
		Notes:             req.Notes,
		ScanHistory: []ScanRecord{{
			ScannedAt: time.Now().UTC(),
			ScannedBy: actorName(actor),
			Action:    string(ScanActionCreated),
			Notes:     "Item registered",
		}},
	}
	if item.Location == "" {
		item.Location = "warehouse"
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionInventoryCreate,
		ResourceType: "InventoryItem",
		ResourceID:   strconv.FormatUint(uint64(item.ID), 10),
		ResourceName: item.ItemCode,
		ChangesAfter: marshalChanges(item),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return &item, nil
}

// CreateBatch registers a list of codes best-effort: a duplicate or invalid
// code fails that code alone, the rest of the batch still goes through.
func (s *Service) CreateBatch(ctx context.Context, req *CreateBatchRequest, actor audit.Actor) (*BatchResult, error) {
	if len(req.ItemCodes) == 0 {
		return nil, fmt.Errorf("%w: at least one item code is required", ErrValidation)
	}

	var product catalog.Product
	if err := s.db.WithContext(ctx).First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	result := &BatchResult{}
	for _, rawCode := range req.ItemCodes {
		item, err := s.CreateItem(ctx, &CreateItemRequest{
			ProductID:         req.ProductID,
			ItemCode:          rawCode,
			Location:          req.Location,
			BatchNumber:       req.BatchNumber,
			ManufacturingDate: req.ManufacturingDate,
			ExpiryDate:        req.ExpiryDate,
		}, actor)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{
				ItemCode: strings.TrimSpace(rawCode),
				Reason:   err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, *item)
	}

	return result, nil
}

// GetByCode looks an item up by its code and resolves the product and any
// assigned order so the scan page can render without further round trips.
func (s *Service) GetByCode(ctx context.Context, code string) (*ItemView, error) {
	var item Item
	err := s.db.WithContext(ctx).
		Preload("ScanHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("item_code = ?", code).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to retrieve inventory item: %w", err)
	}

	return s.resolve(ctx, &item)
}

// GetItem retrieves a single item by ID with its scan history
func (s *Service) GetItem(ctx context.Context, id uint) (*Item, error) {
	var item Item
	err := s.db.WithContext(ctx).
		Preload("ScanHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to retrieve inventory item: %w", err)
	}
	return &item, nil
}

// Scan records a public QR scan against an item and returns the resolved
// view. Scans are anonymous by default and append-only.
func (s *Service) Scan(ctx context.Context, code string, scannedBy, notes string) (*ItemView, error) {
	view, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if scannedBy == "" {
		scannedBy = "system"
	}
	record := ScanRecord{
		ItemID:    view.ID,
		ScannedAt: time.Now().UTC(),
		ScannedBy: scannedBy,
		Action:    string(ScanActionScanned),
		Notes:     notes,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}
	view.ScanHistory = append(view.ScanHistory, record)

	entry := audit.Entry{
		Action:       audit.ActionInventoryScan,
		ResourceType: "InventoryItem",
		ResourceID:   strconv.FormatUint(uint64(view.ID), 10),
		ResourceName: view.ItemCode,
		Description:  fmt.Sprintf("scanned by %s", scannedBy),
	}
	s.recorder.Record(ctx, entry)

	return view, nil
}

// SetStatusRequest represents a status transition
type SetStatusRequest struct {
	Status          Status `json:"status" binding:"required"`
	Location        string `json:"location"`
	AssignedOrderID *uint  `json:"assignedToOrder"`
	Notes           string `json:"notes"`
}

// SetStatus transitions an item between lifecycle states and appends a
// scan history record describing the change.
func (s *Service) SetStatus(ctx context.Context, code string, req *SetStatusRequest, actor audit.Actor) (*Item, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	item, err := s.getItemByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	previous := item.Status

	updates := map[string]interface{}{"status": req.Status}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.AssignedOrderID != nil {
		updates["assigned_order_id"] = *req.AssignedOrderID
	}
	if err := s.db.WithContext(ctx).Model(item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}

	notes := req.Notes
	if notes == "" {
		notes = fmt.Sprintf("Status changed from %s to %s", previous, req.Status)
	}
	record := ScanRecord{
		ItemID:    item.ID,
		ScannedAt: time.Now().UTC(),
		ScannedBy: actorName(actor),
		Action:    string(ScanActionMoved),
		Notes:     notes,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record status change: %w", err)
	}

	entry := audit.Entry{
		Action:        audit.ActionInventoryStatus,
		ResourceType:  "InventoryItem",
		ResourceID:    strconv.FormatUint(uint64(item.ID), 10),
		ResourceName:  item.ItemCode,
		ChangesBefore: marshalChanges(map[string]interface{}{"status": previous}),
		ChangesAfter:  marshalChanges(map[string]interface{}{"status": req.Status}),
		Description:   notes,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return s.GetItem(ctx, item.ID)
}

// ListForProduct retrieves every item registered against a product,
// optionally filtered by status, newest-first.
func (s *Service) ListForProduct(ctx context.Context, productID uint, status Status) ([]Item, error) {
	query := s.db.WithContext(ctx).Where("product_id = ?", productID)
	if status != "" {
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		query = query.Where("status = ?", status)
	}

	var items []Item
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve inventory items: %w", err)
	}
	return items, nil
}

// StatsForProduct counts items per status for one product. Every status
// key is always present, zero counts included.
func (s *Service) StatsForProduct(ctx context.Context, productID uint) (*Stats, error) {
	var product catalog.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	type row struct {
		Status Status
		Count  int
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&Item{}).
		Select("status, count(*) as count").
		Where("product_id = ?", productID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute inventory stats: %w", err)
	}

	stats := &Stats{}
	for _, r := range rows {
		switch r.Status {
		case StatusAvailable:
			stats.Available = r.Count
		case StatusSold:
			stats.Sold = r.Count
		case StatusDamaged:
			stats.Damaged = r.Count
		case StatusReturned:
			stats.Returned = r.Count
		case StatusInTransit:
			stats.InTransit = r.Count
		}
		stats.Total += r.Count
	}
	return stats, nil
}

// QRCodeFor renders the item's QR code as a PNG data URL on demand
func (s *Service) QRCodeFor(ctx context.Context, id uint) (*Item, string, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, "", err
	}

	dataURL, err := s.qr.DataURL(item.ItemCode)
	if err != nil {
		return nil, "", err
	}
	return item, dataURL, nil
}

// DeleteItem removes an item and its scan history
func (s *Service) DeleteItem(ctx context.Context, code string, actor audit.Actor) error {
	item, err := s.getItemByCode(ctx, code)
	if err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("item_id = ?", item.ID).Delete(&ScanRecord{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete scan history: %w", err)
	}
	if err := tx.Delete(&Item{}, item.ID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit item deletion: %w", err)
	}

	entry := audit.Entry{
		Action:        audit.ActionInventoryDelete,
		ResourceType:  "InventoryItem",
		ResourceID:    strconv.FormatUint(uint64(item.ID), 10),
		ResourceName:  item.ItemCode,
		ChangesBefore: marshalChanges(item),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return nil
}

// getItemByCode fetches an item by code without preloading history
func (s *Service) getItemByCode(ctx context.Context, code string) (*Item, error) {
	var item Item
	err := s.db.WithContext(ctx).Where("item_code = ?", code).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to retrieve inventory item: %w", err)
	}
	return &item, nil
}

// resolve attaches the product and assigned order to an item
func (s *Service) resolve(ctx context.Context, item *Item) (*ItemView, error) {
	view := &ItemView{Item: *item}

	var product catalog.Product
	if err := s.db.WithContext(ctx).First(&product, item.ProductID).Error; err == nil {
		view.Product = &product
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}

	if item.AssignedOrderID != nil {
		var assigned order.Order
		err := s.db.WithContext(ctx).
			Preload("Items").
			First(&assigned, *item.AssignedOrderID).Error
		if err == nil {
			view.AssignedOrder = &assigned
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to resolve assigned order: %w", err)
		}
	}

	return view, nil
}

func actorName(actor audit.Actor) string {
	if actor.Email != "" {
		return actor.Email
	}
	return "system"
}

func marshalChanges(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
