package repository

import (
	"context"
	"errors"
	"time"

	"astro-backend/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for stored notification records
type NotificationRepository interface {
	// Create inserts a record with no tickets attached
	Create(ctx context.Context, rec *domain.NotificationRecord) error

	// AttachTickets stores the provider tickets of a record
	AttachTickets(ctx context.Context, id string, tickets []string) error

	// FindByID returns the record, or nil when it does not exist
	FindByID(ctx context.Context, id string) (*domain.NotificationRecord, error)

	// ListByUserID returns a user's records newest first, optionally filtered by category
	ListByUserID(ctx context.Context, userID string, category *domain.Category, limit, offset int) ([]*domain.NotificationRecord, int64, error)

	// MarkRead flags one of the user's records as read
	MarkRead(ctx context.Context, userID, id string) error

	// MarkAllRead flags every unread record of the user as read
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new gorm-backed NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, rec *domain.NotificationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.TicketIDs = nil
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *notificationRepository) AttachTickets(ctx context.Context, id string, tickets []string) error {
	encoded, err := domain.EncodeTickets(tickets)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&domain.NotificationRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ticket_ids": encoded,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*domain.NotificationRecord, error) {
	var rec domain.NotificationRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID string, category *domain.Category, limit, offset int) ([]*domain.NotificationRecord, int64, error) {
	var records []*domain.NotificationRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.NotificationRecord{}).Where("user_id = ?", userID)
	if category != nil {
		query = query.Where("type = ?", *category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&records).Error
	return records, total, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.NotificationRecord{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"read":       true,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.NotificationRecord{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{
			"read":       true,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}
