package repository

import (
	"context"
	"errors"
	"time"

	"astro-backend/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository defines the interface for push token operations
type TokenRepository interface {
	// GetToken returns the user's most recently updated token, or nil when none is stored
	GetToken(ctx context.Context, userID string) (*domain.PushToken, error)

	// UpsertToken stores token as the user's single token for deviceClass
	UpsertToken(ctx context.Context, userID, token string, deviceClass domain.DeviceClass) error

	// DeleteToken removes one token of a user; removing an absent token is not an error
	DeleteToken(ctx context.Context, userID, token string) error

	// DeleteTokensByUserID removes every token of a user
	DeleteTokensByUserID(ctx context.Context, userID string) error
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new gorm-backed TokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) GetToken(ctx context.Context, userID string) (*domain.PushToken, error) {
	var token domain.PushToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) UpsertToken(ctx context.Context, userID, token string, deviceClass domain.DeviceClass) error {
	now := time.Now()
	row := &domain.PushToken{
		ID:          uuid.New().String(),
		UserID:      userID,
		Token:       token,
		DeviceClass: deviceClass,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// one active token per user and device class
		if err := tx.Where("user_id = ? AND device_class = ? AND token <> ?", userID, deviceClass, token).
			Delete(&domain.PushToken{}).Error; err != nil {
			return err
		}

		// INSERT ... ON CONFLICT (token) DO UPDATE moves a re-registered device to its new owner
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_class", "updated_at"}),
		}).Create(row).Error
	})
}

func (r *tokenRepository) DeleteToken(ctx context.Context, userID, token string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&domain.PushToken{}).Error
}

func (r *tokenRepository) DeleteTokensByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.PushToken{}).Error
}
