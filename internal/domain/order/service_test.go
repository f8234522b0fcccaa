package order

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
	"github.com/your-org/breakroom-backend/internal/domain/invoice"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalog.Product{},
		&Order{}, &OrderItem{},
		&invoice.Invoice{}, &invoice.InvoiceItem{},
		&audit.Entry{},
	))
	return db
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	cfg := &config.Config{}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	recorder := audit.NewStore(db, log)
	invoices := invoice.NewService(db, cfg, recorder, nil)
	return NewService(db, cfg, recorder, invoices), db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) *catalog.Product {
	t.Helper()

	product := &catalog.Product{Name: name, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestCreateOrderSnapshotsTotal(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)
	cups := seedProduct(t, db, "Paper Cups", 800, 20)

	placed, err := svc.CreateOrder(ctx, 1, &CreateOrderRequest{
		Items: []CreateOrderLine{
			{ProductID: coffee.ID, Quantity: 2},
			{ProductID: cups.ID, Quantity: 3},
		},
	}, audit.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, int64(2*1500+3*800), placed.TotalPrice)
	assert.Equal(t, StatusPending, placed.Status)

	// A later price change must not affect the stored total
	require.NoError(t, db.Model(&catalog.Product{}).Where("id = ?", coffee.ID).Update("price", 9999).Error)

	var reloaded Order
	require.NoError(t, db.First(&reloaded, placed.ID).Error)
	assert.Equal(t, int64(2*1500+3*800), reloaded.TotalPrice)
}

func TestCreateOrderMissingProductContributesZero(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)

	placed, err := svc.CreateOrder(ctx, 1, &CreateOrderRequest{
		Items: []CreateOrderLine{
			{ProductID: coffee.ID, Quantity: 1},
			{ProductID: 9999, Quantity: 5},
		},
	}, audit.Anonymous)
	require.NoError(t, err)

	assert.Equal(t, int64(1500), placed.TotalPrice)
	assert.Len(t, placed.Items, 2)
}

func TestCreateOrderRejectsEmptyAndNonPositive(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, 1, &CreateOrderRequest{}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrValidation)

	coffee := seedProduct(t, db, "House Blend", 1500, 10)
	_, err = svc.CreateOrder(ctx, 1, &CreateOrderRequest{
		Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 0}},
	}, audit.Anonymous)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFulfillDecrementsStockAndCreatesInvoice(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)
	cups := seedProduct(t, db, "Paper Cups", 800, 20)

	placed, err := svc.CreateOrder(ctx, 7, &CreateOrderRequest{
		Items: []CreateOrderLine{
			{ProductID: coffee.ID, Quantity: 4},
			{ProductID: cups.ID, Quantity: 5},
		},
	}, audit.Anonymous)
	require.NoError(t, err)

	// Price change between creation and fulfillment: the invoice lines
	// must carry the fulfillment-time price, the invoice total the
	// creation-time total
	require.NoError(t, db.Model(&catalog.Product{}).Where("id = ?", coffee.ID).Update("price", 2000).Error)

	result, err := svc.Fulfill(ctx, placed.ID, audit.Actor{Email: "admin@example.com"})
	require.NoError(t, err)
	require.NotNil(t, result.Invoice)

	assert.Equal(t, StatusFulfilled, result.Order.Status)
	assert.NotNil(t, result.Order.FulfilledAt)

	var coffeeAfter, cupsAfter catalog.Product
	require.NoError(t, db.First(&coffeeAfter, coffee.ID).Error)
	require.NoError(t, db.First(&cupsAfter, cups.ID).Error)
	assert.Equal(t, 6, coffeeAfter.Stock)
	assert.Equal(t, 15, cupsAfter.Stock)

	var inv invoice.Invoice
	require.NoError(t, db.Preload("Items").First(&inv, result.Invoice.ID).Error)
	assert.Equal(t, placed.TotalPrice, inv.TotalAmount)
	require.Len(t, inv.Items, 2)
	for _, line := range inv.Items {
		if line.ProductID == coffee.ID {
			assert.Equal(t, int64(2000), line.UnitPrice)
			assert.Equal(t, int64(8000), line.LineTotal)
		}
	}
}

func TestFulfillInsufficientStockIsAllOrNothing(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)
	cups := seedProduct(t, db, "Paper Cups", 800, 2)

	placed, err := svc.CreateOrder(ctx, 7, &CreateOrderRequest{
		Items: []CreateOrderLine{
			{ProductID: coffee.ID, Quantity: 4},
			{ProductID: cups.ID, Quantity: 5},
		},
	}, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.Fulfill(ctx, placed.ID, audit.Anonymous)
	require.Error(t, err)

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, cups.ID, short.ProductID)
	assert.Equal(t, "Paper Cups", short.ProductName)
	assert.Equal(t, 5, short.Requested)
	assert.Equal(t, 2, short.Available)

	// No partial decrement, no status flip, no invoice
	var coffeeAfter catalog.Product
	require.NoError(t, db.First(&coffeeAfter, coffee.ID).Error)
	assert.Equal(t, 10, coffeeAfter.Stock)

	var reloaded Order
	require.NoError(t, db.First(&reloaded, placed.ID).Error)
	assert.Equal(t, StatusPending, reloaded.Status)

	var invoiceCount int64
	require.NoError(t, db.Model(&invoice.Invoice{}).Count(&invoiceCount).Error)
	assert.Zero(t, invoiceCount)
}

func TestFulfillProductGone(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)

	placed, err := svc.CreateOrder(ctx, 7, &CreateOrderRequest{
		Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 1}},
	}, audit.Anonymous)
	require.NoError(t, err)

	// Hard-delete the product after order creation
	require.NoError(t, db.Unscoped().Delete(&catalog.Product{}, coffee.ID).Error)

	_, err = svc.Fulfill(ctx, placed.ID, audit.Anonymous)
	var gone *ProductGoneError
	require.ErrorAs(t, err, &gone)
	assert.Equal(t, coffee.ID, gone.ProductID)
}

func TestFulfillTwiceIsRejected(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)

	placed, err := svc.CreateOrder(ctx, 7, &CreateOrderRequest{
		Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 2}},
	}, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.Fulfill(ctx, placed.ID, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.Fulfill(ctx, placed.ID, audit.Anonymous)
	assert.ErrorIs(t, err, ErrAlreadyFulfilled)

	// Stock decremented exactly once
	var coffeeAfter catalog.Product
	require.NoError(t, db.First(&coffeeAfter, coffee.ID).Error)
	assert.Equal(t, 8, coffeeAfter.Stock)
}

func TestFulfillRejectsMidFlightStatusChange(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)

	placed, err := svc.CreateOrder(ctx, 7, &CreateOrderRequest{
		Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 2}},
	}, audit.Anonymous)
	require.NoError(t, err)

	// Flip the order to fulfilled between the engine's pre-check read and
	// its transaction, the way a competing fulfillment that commits first
	// would. The product batch fetch is the first products query after
	// the order is loaded, so hook there.
	flipped := false
	err = db.Callback().Query().After("gorm:query").Register("competing_fulfill", func(q *gorm.DB) {
		if flipped || q.Statement.Table != "products" {
			return
		}
		flipped = true
		db.Exec("UPDATE orders SET status = ? WHERE id = ?", StatusFulfilled, placed.ID)
	})
	require.NoError(t, err)

	_, err = svc.Fulfill(ctx, placed.ID, audit.Anonymous)
	assert.ErrorIs(t, err, ErrAlreadyFulfilled)
	assert.True(t, flipped)

	// The losing call must leave no trace: no decrement, no invoice
	var coffeeAfter catalog.Product
	require.NoError(t, db.First(&coffeeAfter, coffee.ID).Error)
	assert.Equal(t, 10, coffeeAfter.Stock)

	var invoiceCount int64
	require.NoError(t, db.Model(&invoice.Invoice{}).Count(&invoiceCount).Error)
	assert.Zero(t, invoiceCount)
}

func TestFulfillCompetingOrdersNeverOversell(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)

	first, err := svc.CreateOrder(ctx, 1, &CreateOrderRequest{
		Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 6}},
	}, audit.Anonymous)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, 2, &CreateOrderRequest{
		Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 6}},
	}, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.Fulfill(ctx, first.ID, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.Fulfill(ctx, second.ID, audit.Anonymous)
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 6, short.Requested)
	assert.Equal(t, 4, short.Available)

	// Stock covers one order only; the loser changes nothing
	var coffeeAfter catalog.Product
	require.NoError(t, db.First(&coffeeAfter, coffee.ID).Error)
	assert.Equal(t, 4, coffeeAfter.Stock)

	var reloaded Order
	require.NoError(t, db.First(&reloaded, second.ID).Error)
	assert.Equal(t, StatusPending, reloaded.Status)

	var invoiceCount int64
	require.NoError(t, db.Model(&invoice.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(1), invoiceCount)
}

func TestFulfillRollsBackWhenInvoiceWriteFails(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)

	placed, err := svc.CreateOrder(ctx, 7, &CreateOrderRequest{
		Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 3}},
	}, audit.Anonymous)
	require.NoError(t, err)

	// Break the invoice write after every pre-check passes; the decrement
	// and status flip must roll back with it
	require.NoError(t, db.Migrator().DropTable(&invoice.Invoice{}))

	_, err = svc.Fulfill(ctx, placed.ID, audit.Anonymous)
	require.Error(t, err)

	var coffeeAfter catalog.Product
	require.NoError(t, db.First(&coffeeAfter, coffee.ID).Error)
	assert.Equal(t, 10, coffeeAfter.Stock)

	var reloaded Order
	require.NoError(t, db.First(&reloaded, placed.ID).Error)
	assert.Equal(t, StatusPending, reloaded.Status)
	assert.Nil(t, reloaded.FulfilledAt)

	var lineCount int64
	require.NoError(t, db.Model(&invoice.InvoiceItem{}).Count(&lineCount).Error)
	assert.Zero(t, lineCount)
}

func TestFulfillMissingOrder(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Fulfill(context.Background(), 12345, audit.Anonymous)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSetStatusReservesFulfilled(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 10)
	placed, err := svc.CreateOrder(ctx, 7, &CreateOrderRequest{
		Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 1}},
	}, audit.Anonymous)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, placed.ID, StatusFulfilled, audit.Anonymous)
	assert.ErrorIs(t, err, ErrStatusReserved)

	updated, err := svc.SetStatus(ctx, placed.ID, StatusProcessing, audit.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)

	// Stock untouched by a plain status change
	var coffeeAfter catalog.Product
	require.NoError(t, db.First(&coffeeAfter, coffee.ID).Error)
	assert.Equal(t, 10, coffeeAfter.Stock)
}

func TestListAllNewestFirst(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	coffee := seedProduct(t, db, "House Blend", 1500, 100)
	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(ctx, uint(i+1), &CreateOrderRequest{
			Items: []CreateOrderLine{{ProductID: coffee.ID, Quantity: 1}},
		}, audit.Anonymous)
		require.NoError(t, err)
	}

	orders, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i := 1; i < len(orders); i++ {
		assert.False(t, orders[i].CreatedAt.After(orders[i-1].CreatedAt))
	}
}
