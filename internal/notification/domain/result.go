package domain

import "astro-backend/pkg/push"

// ErrorCode identifies why an operation did not succeed
type ErrorCode string

const (
	ErrTokenNotFound         ErrorCode = "TOKEN_NOT_FOUND"
	ErrPreferencesNotFound   ErrorCode = "PREFERENCES_NOT_FOUND"
	ErrNotificationsDisabled ErrorCode = "NOTIFICATIONS_DISABLED"
	ErrCategoryDisabled      ErrorCode = "CATEGORY_DISABLED"
	ErrNoFollowers           ErrorCode = "NO_FOLLOWERS"
	ErrFollowersLookup       ErrorCode = "FOLLOWERS_LOOKUP_FAILED"
	ErrNotFound              ErrorCode = "NOT_FOUND"
	ErrUnsupportedDevice     ErrorCode = "UNSUPPORTED_DEVICE_CLASS"
	ErrStoreFailed           ErrorCode = "STORE_FAILED"

	ErrInvalidToken        = ErrorCode(push.CodeInvalidToken)
	ErrDeviceNotRegistered = ErrorCode(push.CodeDeviceNotRegistered)
	ErrInvalidBundleID     = ErrorCode(push.CodeInvalidBundleID)
	ErrKeyFileMissing      = ErrorCode(push.CodeKeyFileMissing)
	ErrAPNS                = ErrorCode(push.CodeAPNSError)
	ErrExpo                = ErrorCode(push.CodeExpoError)
)

// SendResult is the outcome of dispatching one notification to one user
type SendResult struct {
	UserID         string    `json:"userId,omitempty"`
	Success        bool      `json:"success"`
	NotificationID string    `json:"notificationId,omitempty"`
	Tickets        []string  `json:"tickets,omitempty"`
	Error          ErrorCode `json:"error,omitempty"`
	Message        string    `json:"message,omitempty"`
}

// Failed builds an unsuccessful SendResult
func Failed(code ErrorCode, message string) SendResult {
	return SendResult{Success: false, Error: code, Message: message}
}

// BulkResult is the outcome of a fan-out; Results has one entry per recipient
type BulkResult struct {
	Success bool         `json:"success"`
	Results []SendResult `json:"results"`
	Error   ErrorCode    `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
}

// StatusResult is the outcome of a receipt reconciliation
type StatusResult struct {
	Success  bool           `json:"success"`
	Receipts []push.Receipt `json:"receipts,omitempty"`
	Error    ErrorCode      `json:"error,omitempty"`
	Message  string         `json:"message,omitempty"`
}
