package domain

import (
	"fmt"
	"time"
)

// DeviceClass selects the provider a token is delivered through
type DeviceClass string

const (
	// DeviceClassManaged tokens are routed through the Expo push relay
	DeviceClassManaged DeviceClass = "managed"
	// DeviceClassNativeApple tokens are sent directly to APNs
	DeviceClassNativeApple DeviceClass = "native_apple"
)

// ParseDeviceClass converts a wire value into a DeviceClass; empty means managed
func ParseDeviceClass(s string) (DeviceClass, error) {
	switch DeviceClass(s) {
	case "", DeviceClassManaged:
		return DeviceClassManaged, nil
	case DeviceClassNativeApple:
		return DeviceClassNativeApple, nil
	}
	return "", fmt.Errorf("unknown device class %q", s)
}

// PushToken is the device token a user registered for push delivery
type PushToken struct {
	ID          string      `json:"id" gorm:"primaryKey"`
	UserID      string      `json:"userId" gorm:"index;not null;uniqueIndex:idx_push_tokens_user_class"`
	Token       string      `json:"-" gorm:"uniqueIndex;not null"`
	DeviceClass DeviceClass `json:"deviceClass" gorm:"not null;default:managed;uniqueIndex:idx_push_tokens_user_class"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (PushToken) TableName() string {
	return "push_tokens"
}
