// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"github.com/your-org/breakroom-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the HTTP layer
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrValidation         = errors.New("validation failed")
)

// Service handles account and authentication business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	recorder audit.Recorder
	jwt      *auth.JWTManager
	password *auth.PasswordManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, recorder audit.Recorder) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		recorder: recorder,
		jwt:      auth.NewJWTManager(cfg),
		password: auth.NewPasswordManager(cfg),
	}
}

// RegisterRequest represents account creation data
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the token pair and the account it belongs to
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

// Register creates a customer account. The role is never taken from the
// request; admins are promoted out of band.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	hashed, err := s.password.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	account := User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashed,
		Role:     RoleCustomer,
		Company:  req.Company,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionRegister,
		ResourceType: "User",
		ResourceID:   strconv.FormatUint(uint64(account.ID), 10),
		ResourceName: account.Email,
	}
	audit.Actor{ID: &account.ID, Email: account.Email, Role: account.Role}.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return s.issueTokens(&account)
}

// Login authenticates credentials and returns a token pair. Failed
// attempts are audited with the attempted email.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var account User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailedLogin(ctx, email, "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.password.VerifyPassword(req.Password, account.Password); err != nil {
		s.recordFailedLogin(ctx, email, "wrong password")
		return nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		s.recordFailedLogin(ctx, email, "account disabled")
		return nil, ErrAccountDisabled
	}

	now := time.Now().UTC()
	s.db.WithContext(ctx).Model(&account).UpdateColumn("last_login", now)
	account.LastLogin = &now

	entry := audit.Entry{
		Action:       audit.ActionLogin,
		ResourceType: "User",
		ResourceID:   strconv.FormatUint(uint64(account.ID), 10),
		ResourceName: account.Email,
	}
	audit.Actor{ID: &account.ID, Email: account.Email, Role: account.Role}.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return s.issueTokens(&account)
}

// Refresh exchanges a valid refresh token for a fresh pair. The role is
// re-read from the database, not trusted from the token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	account, err := s.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(account)
}

// UpdateProfileRequest represents a partial self-service profile update
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
}

// UpdateProfile lets an account change its own contact details. Email,
// role, and password go through dedicated flows.
func (s *Service) UpdateProfile(ctx context.Context, id uint, req *UpdateProfileRequest) (*User, error) {
	account, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no valid fields supplied", ErrValidation)
	}

	if err := s.db.WithContext(ctx).Model(account).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	entry := audit.Entry{
		Action:       audit.ActionProfileUpdate,
		ResourceType: "User",
		ResourceID:   strconv.FormatUint(uint64(account.ID), 10),
		ResourceName: account.Email,
	}
	audit.Actor{ID: &account.ID, Email: account.Email, Role: account.Role}.Apply(&entry)
	s.recorder.Record(ctx, entry)

	return account, nil
}

// GetUser retrieves one account by ID
func (s *Service) GetUser(ctx context.Context, id uint) (*User, error) {
	var account User
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &account, nil
}

// ListCustomers retrieves all customer accounts (admin)
func (s *Service) ListCustomers(ctx context.Context) ([]User, error) {
	var accounts []User
	err := s.db.WithContext(ctx).
		Where("role = ?", RoleCustomer).
		Order("created_at DESC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve customers: %w", err)
	}
	return accounts, nil
}

func (s *Service) issueTokens(account *User) (*AuthResponse, error) {
	access, err := s.jwt.GenerateAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         account,
	}, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, email, reason string) {
	s.recorder.Record(ctx, audit.Entry{
		Action:       audit.ActionFailedLogin,
		UserEmail:    email,
		ResourceType: "User",
		ResourceName: email,
		Status:       audit.OutcomeFailure,
		ErrorMessage: reason,
	})
}
