package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"github.com/your-org/breakroom-backend/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAdminRouter(t *testing.T, role string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&audit.Entry{}))

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	store := audit.NewStore(db, log)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint(42))
		c.Set("user_email", "worker@example.com")
		c.Set("user_role", role)
	})
	router.GET("/admin/audit", AdminMiddleware(store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, db
}

func TestAdminMiddlewareRecordsDeniedAccess(t *testing.T) {
	router, db := setupAdminRouter(t, user.RoleCustomer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/audit", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var entries []audit.Entry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionUnauthorized, entries[0].Action)
	assert.Equal(t, audit.OutcomeFailure, entries[0].Status)
	assert.Equal(t, http.StatusForbidden, entries[0].StatusCode)
	assert.Equal(t, "worker@example.com", entries[0].UserEmail)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, uint(42), *entries[0].UserID)
	assert.Equal(t, "/admin/audit", entries[0].ResourceID)
}

func TestAdminMiddlewareAllowsAdmin(t *testing.T) {
	router, db := setupAdminRouter(t, user.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/audit", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&audit.Entry{}).Count(&count).Error)
	assert.Zero(t, count)
}
