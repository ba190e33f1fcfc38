package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate authenticates a user against the local database.
// Suspended and deleted accounts are refused before the password is checked.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if user.Status != models.UserStatusActive {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return &user, nil
}

// CreateUser creates a new active local user.
func (p *LocalProvider) CreateUser(
	ctx context.Context,
	username, email, password string,
	emailVerified bool,
) (*models.User, error) {
	db := p.db.WithContext(ctx)

	var existing models.User

	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrUserNameExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := models.User{
		Username:      username,
		Email:         email,
		Password:      models.HashPassword(password),
		Status:        models.UserStatusActive,
		EmailVerified: emailVerified,
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (p *LocalProvider) GetUserByID(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// SetStatus changes the account state of a user.
func (p *LocalProvider) SetStatus(ctx context.Context, userID uint64, status models.UserStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown user status %q", status)
	}

	if _, err := p.GetUserByID(ctx, userID); err != nil {
		return err
	}

	err := p.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	return nil
}
