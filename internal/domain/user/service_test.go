package user

import (
	"context"
	"fmt"
	"testing"
	"time"

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
	require.NoError(t, db.AutoMigrate(&User{}, &audit.Entry{}))

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-key-that-is-long-enough-0000"
	cfg.JWT.AccessTokenExpiry = time.Hour
	cfg.JWT.RefreshTokenExpiry = 24 * time.Hour
	cfg.Security.BcryptCost = 4 // keep hashing fast in tests

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewService(db, cfg, audit.NewStore(db, log)), db
}

func TestRegisterAndLoginRoundtrip(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{
		Name:     "Jordan",
		Email:    "  Jordan@Example.COM ",
		Password: "Sup3rSecret",
		Company:  "Acme Offices",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "jordan@example.com", registered.User.Email)
	assert.Equal(t, RoleCustomer, registered.User.Role)
	assert.NotEqual(t, "Sup3rSecret", registered.User.Password)

	logged, err := svc.Login(ctx, &LoginRequest{Email: "jordan@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)
	assert.NotNil(t, logged.User.LastLogin)
}

func TestRegisterNeverGrantsAdmin(t *testing.T) {
	svc, db := setupService(t)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Sneaky",
		Email:    "sneaky@example.com",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, resp.User.Role)

	var stored User
	require.NoError(t, db.First(&stored, resp.User.ID).Error)
	assert.Equal(t, RoleCustomer, stored.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Name: "A", Email: "dup@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{Name: "B", Email: "DUP@example.com", Password: "Sup3rSecret"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginFailureIsAudited(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Name: "A", Email: "a@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "a@example.com", Password: "WrongPass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "Sup3rSecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var failures []audit.Entry
	require.NoError(t, db.Where("action = ?", audit.ActionFailedLogin).Find(&failures).Error)
	require.Len(t, failures, 2)
	for _, entry := range failures {
		assert.Equal(t, audit.OutcomeFailure, entry.Status)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Name: "A", Email: "a@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&User{}).Where("id = ?", resp.User.ID).Update("is_active", false).Error)

	_, err = svc.Login(ctx, &LoginRequest{Email: "a@example.com", Password: "Sup3rSecret"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Name: "A", Email: "a@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	company := "New Co"
	updated, err := svc.UpdateProfile(ctx, resp.User.ID, &UpdateProfileRequest{Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "New Co", updated.Company)
	assert.Equal(t, "A", updated.Name)

	_, err = svc.UpdateProfile(ctx, resp.User.ID, &UpdateProfileRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRefreshReReadsRoleFromDatabase(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Name: "A", Email: "a@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	// Promote out of band, then refresh with the old token pair
	require.NoError(t, db.Model(&User{}).Where("id = ?", resp.User.ID).Update("role", RoleAdmin).Error)

	refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, refreshed.User.Role)

	_, err = svc.Refresh(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
