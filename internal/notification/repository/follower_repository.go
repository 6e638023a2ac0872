package repository

import (
	"context"

	"astro-backend/internal/notification/domain"

	"gorm.io/gorm"
)

// FollowerRepository reads the follower relation maintained by the user-account side
type FollowerRepository interface {
	ListFollowers(ctx context.Context, userID string) ([]string, error)
}

type followerRepository struct {
	db *gorm.DB
}

// NewFollowerRepository creates a new gorm-backed FollowerRepository
func NewFollowerRepository(db *gorm.DB) FollowerRepository {
	return &followerRepository{db: db}
}

func (r *followerRepository) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Follower{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
