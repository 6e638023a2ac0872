package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"astro-backend/internal/notification/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository defines the interface for notification preference operations
type PreferenceRepository interface {
	// GetPreferences returns the stored row, or the defaults when the user never saved any
	GetPreferences(ctx context.Context, userID string) (*domain.Preferences, error)

	// UpsertPreferences creates or replaces the user's row
	UpsertPreferences(ctx context.Context, prefs *domain.Preferences) error

	// ListUserIDsWithCategory returns users holding a push token whose preferences allow category
	ListUserIDsWithCategory(ctx context.Context, category domain.Category) ([]string, error)
}

type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new gorm-backed PreferenceRepository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) GetPreferences(ctx context.Context, userID string) (*domain.Preferences, error) {
	var prefs domain.Preferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DefaultPreferences(userID), nil
		}
		return nil, err
	}
	return &prefs, nil
}

func (r *preferenceRepository) UpsertPreferences(ctx context.Context, prefs *domain.Preferences) error {
	now := time.Now()
	prefs.CreatedAt = now
	prefs.UpdatedAt = now

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled", "messages", "following", "readings", "promotions",
			"daily_horoscope", "moon_phases", "planetary_transits", "updated_at",
		}),
	}).Create(prefs).Error
}

func (r *preferenceRepository) ListUserIDsWithCategory(ctx context.Context, category domain.Category) ([]string, error) {
	allowedByDefault := domain.DefaultPreferences("").Allows(category)

	stored := "p.enabled = true"
	if column := domain.CategoryColumn(category); column != "" {
		stored = fmt.Sprintf("p.enabled = true AND p.%s = true", column)
	}

	query := fmt.Sprintf(`SELECT DISTINCT t.user_id
FROM push_tokens t
LEFT JOIN notification_preferences p ON p.user_id = t.user_id
WHERE (p.user_id IS NULL AND ?) OR (%s)`, stored)

	var ids []string
	if err := r.db.WithContext(ctx).Raw(query, allowedByDefault).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
