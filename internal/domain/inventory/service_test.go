package inventory

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
	"github.com/your-org/breakroom-backend/internal/domain/catalog"
	"github.com/your-org/breakroom-backend/internal/domain/order"
	"github.com/your-org/breakroom-backend/internal/pkg/qr"
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

	require.NoError(t, db.AutoMigrate(
		&catalog.Product{},
		&order.Order{}, &order.OrderItem{},
		&Item{}, &ScanRecord{},
		&audit.Entry{},
	))

	cfg := &config.Config{}
	cfg.QR.PublicBaseURL = "http://localhost:4000"
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	recorder := audit.NewStore(db, log)
	generator := qr.NewGenerator(cfg.QR.PublicBaseURL, 128)

	return NewService(db, cfg, recorder, generator), db
}

func seedProduct(t *testing.T, db *gorm.DB) *catalog.Product {
	t.Helper()

	product := &catalog.Product{Name: "House Blend", Price: 1500, Stock: 10, IsActive: true}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestCreateItemDerivesQRCode(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	product := seedProduct(t, db)

	item, err := svc.CreateItem(ctx, &CreateItemRequest{
		ProductID: product.ID,
		ItemCode:  "  HB-0001  ",
	}, audit.Anonymous)
	require.NoError(t, err)

	assert.Equal(t, "HB-0001", item.ItemCode)
	assert.Equal(t, "http://localhost:4000/api/inventory/scan/HB-0001", item.QRCode)
	assert.Equal(t, StatusAvailable, item.Status)
	assert.Equal(t, "warehouse", item.Location)
	require.Len(t, item.ScanHistory, 1)
	assert.Equal(t, string(ScanActionCreated), item.ScanHistory[0].Action)
}

func TestCreateItemDuplicateCode(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	product := seedProduct(t, db)

	_, err := svc.CreateItem(ctx, &CreateItemRequest{ProductID: product.ID, ItemCode: "HB-0001"}, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, &CreateItemRequest{ProductID: product.ID, ItemCode: "HB-0001"}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateItemUnknownProduct(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.CreateItem(context.Background(), &CreateItemRequest{ProductID: 999, ItemCode: "X-1"}, audit.Anonymous)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestCreateBatchIsBestEffort(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	product := seedProduct(t, db)

	result, err := svc.CreateBatch(ctx, &CreateBatchRequest{
		ProductID: product.ID,
		ItemCodes: []string{"A", "B", "A"},
	}, audit.Anonymous)
	require.NoError(t, err)

	assert.Len(t, result.Created, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "A", result.Failed[0].ItemCode)

	var count int64
	require.NoError(t, db.Model(&Item{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestScanAppendsHistoryWithoutStatusChange(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	product := seedProduct(t, db)

	_, err := svc.CreateItem(ctx, &CreateItemRequest{ProductID: product.ID, ItemCode: "HB-0001"}, audit.Anonymous)
	require.NoError(t, err)

	view, err := svc.Scan(ctx, "HB-0001", "driver@doyles.com", "")
	require.NoError(t, err)

	assert.Equal(t, StatusAvailable, view.Status)
	require.NotNil(t, view.Product)
	assert.Equal(t, product.ID, view.Product.ID)
	require.Len(t, view.ScanHistory, 2)
	assert.Equal(t, string(ScanActionScanned), view.ScanHistory[1].Action)
	assert.Equal(t, "driver@doyles.com", view.ScanHistory[1].ScannedBy)

	// Both scans retained under repeated scanning
	_, err = svc.Scan(ctx, "HB-0001", "", "")
	require.NoError(t, err)
	var scans int64
	require.NoError(t, db.Model(&ScanRecord{}).Count(&scans).Error)
	assert.Equal(t, int64(3), scans)
}

func TestScanUnknownCode(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Scan(context.Background(), "NOPE", "", "")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSetStatusDefaultNote(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	product := seedProduct(t, db)
	_, err := svc.CreateItem(ctx, &CreateItemRequest{ProductID: product.ID, ItemCode: "HB-0001"}, audit.Anonymous)
	require.NoError(t, err)

	item, err := svc.SetStatus(ctx, "HB-0001", &SetStatusRequest{Status: StatusInTransit}, audit.Anonymous)
	require.NoError(t, err)

	assert.Equal(t, StatusInTransit, item.Status)
	require.Len(t, item.ScanHistory, 2)
	assert.Equal(t, "Status changed from available to in-transit", item.ScanHistory[1].Notes)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	product := seedProduct(t, db)

	_, err := svc.CreateItem(ctx, &CreateItemRequest{ProductID: product.ID, ItemCode: "HB-0001"}, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, "HB-0001", &SetStatusRequest{Status: "misplaced"}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatsForProduct(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	product := seedProduct(t, db)

	codes := []string{"A", "B", "C", "D"}
	for _, code := range codes {
		_, err := svc.CreateItem(ctx, &CreateItemRequest{ProductID: product.ID, ItemCode: code}, audit.Anonymous)
		require.NoError(t, err)
	}
	_, err := svc.SetStatus(ctx, "A", &SetStatusRequest{Status: StatusSold}, audit.Anonymous)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, "B", &SetStatusRequest{Status: StatusInTransit}, audit.Anonymous)
	require.NoError(t, err)

	stats, err := svc.StatsForProduct(ctx, product.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Available)
	assert.Equal(t, 1, stats.Sold)
	assert.Equal(t, 1, stats.InTransit)
	assert.Zero(t, stats.Damaged)
	assert.Zero(t, stats.Returned)
	assert.Equal(t, 4, stats.Total)
}

func TestStatsForUnknownProduct(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.StatsForProduct(context.Background(), 999)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestDeleteItemRemovesScanHistory(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	product := seedProduct(t, db)

	_, err := svc.CreateItem(ctx, &CreateItemRequest{ProductID: product.ID, ItemCode: "HB-0001"}, audit.Anonymous)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, "HB-0001", audit.Anonymous))

	var items, scans int64
	require.NoError(t, db.Model(&Item{}).Count(&items).Error)
	require.NoError(t, db.Model(&ScanRecord{}).Count(&scans).Error)
	assert.Zero(t, items)
	assert.Zero(t, scans)
}
