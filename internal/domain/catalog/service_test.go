package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}, &audit.Entry{}))

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewService(db, &config.Config{}, audit.NewStore(db, log)), db
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "   "}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "Coffee", Price: -1}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "Coffee", Stock: -1}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateProductDefaults(t *testing.T) {
	svc, _ := setupService(t)

	product, err := svc.CreateProduct(context.Background(), &CreateProductRequest{
		Name:  "House Blend",
		Price: 1500,
		Stock: 10,
	}, audit.Anonymous)
	require.NoError(t, err)

	assert.Equal(t, "General", product.Category)
	assert.Equal(t, "unit", product.Unit)
	assert.True(t, product.IsActive)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	sku := "SKU-1"
	_, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "A", Price: 100, SKU: &sku}, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "B", Price: 100, SKU: &sku}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProductPartial(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "House Blend", Price: 1500, Stock: 10}, audit.Anonymous)
	require.NoError(t, err)

	newPrice := int64(1800)
	updated, err := svc.UpdateProduct(ctx, product.ID, &UpdateProductRequest{Price: &newPrice}, audit.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), updated.Price)
	assert.Equal(t, "House Blend", updated.Name)

	_, err = svc.UpdateProduct(ctx, product.ID, &UpdateProductRequest{}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrNoFields)

	_, err = svc.UpdateProduct(ctx, 9999, &UpdateProductRequest{Price: &newPrice}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAdjustStockNeverGoesNegative(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "House Blend", Price: 1500, Stock: 5}, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, product.ID, -10, audit.Anonymous)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var reloaded Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 5, reloaded.Stock)

	updated, err := svc.AdjustStock(ctx, product.ID, -5, audit.Anonymous)
	require.NoError(t, err)
	assert.Zero(t, updated.Stock)

	updated, err = svc.AdjustStock(ctx, product.ID, 3, audit.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
}

func TestListAvailableFiltersStockAndActive(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "In Stock", Price: 100, Stock: 5}, audit.Anonymous)
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, &CreateProductRequest{Name: "Sold Out", Price: 100, Stock: 0}, audit.Anonymous)
	require.NoError(t, err)
	inactive, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "Retired", Price: 100, Stock: 5}, audit.Anonymous)
	require.NoError(t, err)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	available, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "In Stock", available[0].Name)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteProductSoftDeletes(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "House Blend", Price: 1500, Stock: 10}, audit.Anonymous)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID, audit.Anonymous))

	_, err = svc.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	// Soft delete keeps the row for invoice history
	var count int64
	require.NoError(t, db.Unscoped().Model(&Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
