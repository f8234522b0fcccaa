package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Entry{}))

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewStore(db, log), db
}

func TestRecordDefaultsToSuccess(t *testing.T) {
	store, db := setupStore(t)

	store.Record(context.Background(), Entry{
		Action:       ActionProductCreate,
		ResourceType: "Product",
		ResourceID:   "1",
	})

	var saved Entry
	require.NoError(t, db.First(&saved).Error)
	assert.Equal(t, OutcomeSuccess, saved.Status)
	assert.Nil(t, saved.UserID)
}

func TestRecordAppliesContextMeta(t *testing.T) {
	store, db := setupStore(t)

	ctx := WithMeta(context.Background(), Meta{
		Method:    "POST",
		Endpoint:  "/api/orders",
		IPAddress: "10.0.0.5",
		UserAgent: "curl/8.0",
	})
	store.Record(ctx, Entry{Action: ActionOrderCreate})

	var saved Entry
	require.NoError(t, db.First(&saved).Error)
	assert.Equal(t, "POST", saved.Method)
	assert.Equal(t, "/api/orders", saved.Endpoint)
	assert.Equal(t, "10.0.0.5", saved.IPAddress)
	assert.Equal(t, "curl/8.0", saved.UserAgent)
}

func TestRecordMetaNeverOverwritesEntryFields(t *testing.T) {
	store, db := setupStore(t)

	ctx := WithMeta(context.Background(), Meta{Method: "POST", Endpoint: "/api/orders"})
	store.Record(ctx, Entry{Action: ActionOrderCreate, Method: "PUT"})

	var saved Entry
	require.NoError(t, db.First(&saved).Error)
	assert.Equal(t, "PUT", saved.Method)
	assert.Equal(t, "/api/orders", saved.Endpoint)
}

func TestRecordSwallowsWriteFailures(t *testing.T) {
	store, db := setupStore(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	// Must not panic or surface an error
	store.Record(context.Background(), Entry{Action: ActionLogin})
}

func TestEntriesAreImmutable(t *testing.T) {
	store, db := setupStore(t)

	store.Record(context.Background(), Entry{Action: ActionLogin, UserEmail: "a@b.com"})

	var saved Entry
	require.NoError(t, db.First(&saved).Error)

	err := db.Model(&saved).Update("user_email", "tampered@b.com").Error
	assert.ErrorIs(t, err, ErrImmutable)

	err = db.Delete(&saved).Error
	assert.ErrorIs(t, err, ErrImmutable)

	var reloaded Entry
	require.NoError(t, db.First(&reloaded, saved.ID).Error)
	assert.Equal(t, "a@b.com", reloaded.UserEmail)
}

func TestRetentionSweepRemovesOnlyExpiredEntries(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	old := Entry{Action: ActionLogin}
	recent := Entry{Action: ActionOrderCreate}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	// Backdate one entry past the retention window. Raw SQL because the
	// ORM path is blocked by the immutability hook.
	stale := time.Now().UTC().Add(-100 * 24 * time.Hour)
	require.NoError(t, db.Exec("UPDATE audit_logs SET created_at = ? WHERE id = ?", stale, old.ID).Error)

	removed, err := store.RetentionSweep(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The surviving recent entry plus the sweep's own trace entry
	var remaining []Entry
	require.NoError(t, db.Order("id").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, ActionOrderCreate, remaining[0].Action)
	assert.Equal(t, ActionRetentionSweep, remaining[1].Action)
	assert.Equal(t, "AuditLog", remaining[1].ResourceType)
	assert.Contains(t, remaining[1].Description, "Removed 1 audit entries")
}

func TestRetentionSweepLeavesNoTraceWhenNothingExpired(t *testing.T) {
	store, db := setupStore(t)

	require.NoError(t, db.Create(&Entry{Action: ActionLogin}).Error)

	removed, err := store.RetentionSweep(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	var count int64
	require.NoError(t, db.Model(&Entry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListFiltersAndOrders(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	userID := uint(42)
	entries := []Entry{
		{Action: ActionProductCreate, ResourceType: "Product", ResourceID: "1", UserID: &userID},
		{Action: ActionProductUpdate, ResourceType: "Product", ResourceID: "1"},
		{Action: ActionOrderCreate, ResourceType: "Order", ResourceID: "9", UserID: &userID},
	}
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}

	byResource, total, err := store.List(ctx, &ListRequest{ResourceType: "Product", Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, byResource, 2)

	byUser, total, err := store.List(ctx, &ListRequest{UserID: userID, Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, e := range byUser {
		require.NotNil(t, e.UserID)
		assert.Equal(t, userID, *e.UserID)
	}

	all, total, err := store.List(ctx, &ListRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)
}
