package repository

import (
	"errors"

	"astro-backend/internal/notification/domain"
)

// ErrNotFound is returned when an update or lookup matches no row the caller owns
var ErrNotFound = errors.New("record not found")

// Models lists the tables owned by the notification subsystem, in migration order
func Models() []interface{} {
	return []interface{}{
		&domain.PushToken{},
		&domain.Preferences{},
		&domain.NotificationRecord{},
	}
}
