package usecase

import (
	"context"
	"errors"

	"astro-backend/internal/notification/domain"
	"astro-backend/pkg/push"
)

var (
	ErrInvalidPushToken       = errors.New("invalid push token")
	ErrUnsupportedDeviceClass = errors.New("unsupported device class")
	ErrNotificationNotFound   = errors.New("notification not found")
)

// Senders routes a device class to the adapter that delivers to it
type Senders map[domain.DeviceClass]push.Sender

// ReceiptCheckers routes a device class to the adapter that resolves its tickets
type ReceiptCheckers map[domain.DeviceClass]push.ReceiptChecker

// Dispatcher sends one notification to one user
type Dispatcher interface {
	Send(ctx context.Context, userID string, n domain.Notification) domain.SendResult
}

// FanOut distributes one notification to many users independently
type FanOut interface {
	// SendBulk dispatches to every id and returns one result per id
	SendBulk(ctx context.Context, userIDs []string, n domain.Notification) domain.BulkResult

	// SendToFollowers dispatches to every follower of followedUserID
	SendToFollowers(ctx context.Context, followedUserID string, n domain.Notification) domain.BulkResult
}

// Reconciler queries delivery receipts for stored tickets
type Reconciler interface {
	CheckStatus(ctx context.Context, notificationID string) domain.StatusResult
}

// InboxUsecase covers the user-facing notification operations
type InboxUsecase interface {
	ListNotifications(ctx context.Context, userID string, category *domain.Category, limit, offset int) ([]*domain.NotificationRecord, int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	GetPreferences(ctx context.Context, userID string) (*domain.Preferences, error)
	UpdatePreferences(ctx context.Context, prefs *domain.Preferences) error

	// RegisterToken validates token syntax for deviceClass before storing it
	RegisterToken(ctx context.Context, userID, token string, deviceClass domain.DeviceClass) error
	UnregisterToken(ctx context.Context, userID, token string) error
}
