package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// UserRepository reads profile fields the scheduler needs from the users table
type UserRepository interface {
	// BirthDates returns the known birth dates of the given users
	BirthDates(ctx context.Context, userIDs []string) (map[string]time.Time, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new gorm-backed UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

type userBirthDate struct {
	ID        string
	BirthDate *time.Time
}

func (r *userRepository) BirthDates(ctx context.Context, userIDs []string) (map[string]time.Time, error) {
	dates := make(map[string]time.Time, len(userIDs))
	if len(userIDs) == 0 {
		return dates, nil
	}

	var rows []userBirthDate
	err := r.db.WithContext(ctx).Table("users").
		Select("id, birth_date").
		Where("id IN ?", userIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.BirthDate != nil {
			dates[row.ID] = *row.BirthDate
		}
	}
	return dates, nil
}
