// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the HTTP layer
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrValidation        = errors.New("validation failed")
	ErrNoFields          = errors.New("no valid fields supplied")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Service handles product catalog business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	recorder audit.Recorder
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config, recorder audit.Recorder) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		recorder: recorder,
	}
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       int64   `json:"price"`
	Stock       int     `json:"stock"`
	Unit        string  `json:"unit"`
	SKU         *string `json:"sku"`
}

// UpdateProductRequest represents partial product update data
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       *int64  `json:"price"`
	Stock       *int    `json:"stock"`
	Unit        *string `json:"unit"`
	SKU         *string `json:"sku"`
	IsActive    *bool   `json:"isActive"`
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	result := s.db.WithContext(ctx).Where("id = ?", id).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &product, nil
}

// ListAvailable retrieves active products with stock remaining (public)
func (s *Service) ListAvailable(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := s.db.WithContext(ctx).
		Where("stock > ? AND is_active = ?", 0, true).
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

// ListAll retrieves every product including out-of-stock ones (admin)
func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *CreateProductRequest, actor audit.Actor) (*Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}

	product := Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Unit:        req.Unit,
		SKU:         req.SKU,
		IsActive:    true,
	}
	if product.Category == "" {
		product.Category = "General"
	}
	if product.Unit == "" {
		product.Unit = "unit"
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: sku already in use", ErrValidation)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionProductCreate,
		ResourceType: "Product",
		ResourceID:   strconv.FormatUint(uint64(product.ID), 10),
		ResourceName: product.Name,
		ChangesAfter: marshalChanges(product),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return &product, nil
}

// UpdateProduct applies a partial update, validating every supplied field
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest, actor audit.Actor) (*Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *product

	updates := make(map[string]interface{})

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
		}
		updates["stock"] = *req.Stock
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.SKU != nil {
		updates["sku"] = *req.SKU
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return nil, ErrNoFields
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: sku already in use", ErrValidation)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	entry := audit.Entry{
		Action:        audit.ActionProductUpdate,
		ResourceType:  "Product",
		ResourceID:    strconv.FormatUint(uint64(product.ID), 10),
		ResourceName:  product.Name,
		ChangesBefore: marshalChanges(before),
		ChangesAfter:  marshalChanges(*product),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return product, nil
}

// AdjustStock changes stock by delta using the same conditional-update
// discipline as fulfillment, so concurrent adjustments can never drive
// stock negative.
func (s *Service) AdjustStock(ctx context.Context, id uint, delta int, actor audit.Actor) (*Product, error) {
	query := s.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("stock >= ?", -delta)
	}

	result := query.UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing product from an insufficient balance
		if _, err := s.GetProduct(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientStock
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := audit.Entry{
		Action:       audit.ActionProductUpdate,
		ResourceType: "Product",
		ResourceID:   strconv.FormatUint(uint64(product.ID), 10),
		ResourceName: product.Name,
		Description:  fmt.Sprintf("stock adjusted by %d", delta),
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return product, nil
}

// DeleteProduct soft deletes a product
func (s *Service) DeleteProduct(ctx context.Context, id uint, actor audit.Actor) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&Product{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionProductDelete,
		ResourceType: "Product",
		ResourceID:   strconv.FormatUint(uint64(id), 10),
		ResourceName: product.Name,
	}
	actor.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return nil
}

func marshalChanges(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
