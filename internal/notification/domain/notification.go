package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// NotificationRecord is the stored copy of a notification accepted by a provider
type NotificationRecord struct {
	ID          string            `json:"id" gorm:"primaryKey"`
	UserID      string            `json:"userId" gorm:"index;not null"`
	Category    Category          `json:"type" gorm:"column:type;index;not null"`
	Title       string            `json:"title" gorm:"not null"`
	Body        string            `json:"message" gorm:"column:message;not null"`
	Data        datatypes.JSONMap `json:"data"`
	Read        bool              `json:"read" gorm:"not null;default:false"`
	DeviceClass DeviceClass       `json:"deviceClass" gorm:"not null"`
	// TicketIDs is a JSON array of provider tickets, NULL until tickets are attached
	TicketIDs *string   `json:"-" gorm:"column:ticket_ids;type:text"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (NotificationRecord) TableName() string {
	return "notifications"
}

// Tickets decodes the stored ticket list. A nil slice means tickets were never attached.
func (n *NotificationRecord) Tickets() ([]string, error) {
	if n.TicketIDs == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(*n.TicketIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// EncodeTickets renders ticket ids the way they are stored in ticket_ids
func EncodeTickets(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Follower links a follower to the user they follow. Owned by the user-account side.
type Follower struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	FollowerID  string    `json:"followerId" gorm:"not null;uniqueIndex:idx_followers_pair"`
	FollowingID string    `json:"followingId" gorm:"not null;index;uniqueIndex:idx_followers_pair"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Follower) TableName() string {
	return "followers"
}

// Notification is the content handed to the dispatcher
type Notification struct {
	Category Category               `json:"type"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Data     map[string]interface{} `json:"data,omitempty"`
}
