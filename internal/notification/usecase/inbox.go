package usecase

import (
	"context"
	"errors"
	"fmt"

	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/repository"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type inboxUsecase struct {
	tokenRepo        repository.TokenRepository
	preferenceRepo   repository.PreferenceRepository
	notificationRepo repository.NotificationRepository
	senders          Senders
	logger           *zap.Logger
}

// NewInboxUsecase creates a new InboxUsecase. senders supplies the token validator per device class.
func NewInboxUsecase(
	tokenRepo repository.TokenRepository,
	preferenceRepo repository.PreferenceRepository,
	notificationRepo repository.NotificationRepository,
	senders Senders,
	logger *zap.Logger,
) InboxUsecase {
	return &inboxUsecase{
		tokenRepo:        tokenRepo,
		preferenceRepo:   preferenceRepo,
		notificationRepo: notificationRepo,
		senders:          senders,
		logger:           logger.Named("inbox"),
	}
}

func (u *inboxUsecase) ListNotifications(ctx context.Context, userID string, category *domain.Category, limit, offset int) ([]*domain.NotificationRecord, int64, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return u.notificationRepo.ListByUserID(ctx, userID, category, limit, offset)
}

func (u *inboxUsecase) MarkRead(ctx context.Context, userID, notificationID string) error {
	err := u.notificationRepo.MarkRead(ctx, userID, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func (u *inboxUsecase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return u.notificationRepo.MarkAllRead(ctx, userID)
}

func (u *inboxUsecase) GetPreferences(ctx context.Context, userID string) (*domain.Preferences, error) {
	return u.preferenceRepo.GetPreferences(ctx, userID)
}

func (u *inboxUsecase) UpdatePreferences(ctx context.Context, prefs *domain.Preferences) error {
	if prefs.UserID == "" {
		return fmt.Errorf("preferences without user id")
	}
	return u.preferenceRepo.UpsertPreferences(ctx, prefs)
}

func (u *inboxUsecase) RegisterToken(ctx context.Context, userID, token string, deviceClass domain.DeviceClass) error {
	sender, ok := u.senders[deviceClass]
	if !ok {
		return ErrUnsupportedDeviceClass
	}
	if !sender.ValidToken(token) {
		return ErrInvalidPushToken
	}
	if err := u.tokenRepo.UpsertToken(ctx, userID, token, deviceClass); err != nil {
		return err
	}
	u.logger.Info("push token registered", zap.String("user_id", userID), zap.String("device_class", string(deviceClass)))
	return nil
}

func (u *inboxUsecase) UnregisterToken(ctx context.Context, userID, token string) error {
	return u.tokenRepo.DeleteToken(ctx, userID, token)
}
