package apns

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"astro-backend/pkg/push"

	"go.uber.org/zap"
)

const (
	ProductionHost  = "https://api.push.apple.com"
	DevelopmentHost = "https://api.sandbox.push.apple.com"

	// Native receipts resolve locally, this only bounds the batches the reconciler builds
	receiptChunkSize = 100

	reasonUnregistered           = "Unregistered"
	reasonBadDeviceToken         = "BadDeviceToken"
	reasonBadTopic               = "BadTopic"
	reasonTopicDisallowed        = "TopicDisallowed"
	reasonDeviceTokenNotForTopic = "DeviceTokenNotForTopic"
)

var deviceTokenPattern = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// IsValidDeviceToken reports whether token looks like an iOS device token (64 hex characters)
func IsValidDeviceToken(token string) bool {
	return deviceTokenPattern.MatchString(token)
}

// Config holds the signing credential and endpoint settings.
// Host, when set, overrides the gateway chosen by Production.
type Config struct {
	KeyPath    string
	KeyID      string
	TeamID     string
	BundleID   string
	Production bool
	Host       string
	HTTPClient *http.Client
}

// Client sends notifications straight to the Apple push gateway.
// A client built without credential material is disabled and never touches the network.
type Client struct {
	enabled    bool
	host       string
	topic      string
	token      *providerToken
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient loads the signing key once and returns a ready client.
// Missing or unreadable key material yields a disabled client instead of an error.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := newBaseClient(cfg, logger)

	if cfg.KeyPath == "" || cfg.KeyID == "" || cfg.TeamID == "" || cfg.BundleID == "" {
		c.logger.Warn("APNs credentials not configured, native push disabled")
		return c
	}

	key, err := LoadAuthKey(cfg.KeyPath)
	if err != nil {
		c.logger.Warn("APNs key unavailable, native push disabled", zap.String("path", cfg.KeyPath), zap.Error(err))
		return c
	}

	return c.withKey(key, cfg.KeyID, cfg.TeamID)
}

// NewClientWithKey builds a client from an already loaded key; a nil key yields a disabled client
func NewClientWithKey(key *ecdsa.PrivateKey, cfg Config, logger *zap.Logger) *Client {
	c := newBaseClient(cfg, logger)
	if key == nil {
		return c
	}
	return c.withKey(key, cfg.KeyID, cfg.TeamID)
}

func newBaseClient(cfg Config, logger *zap.Logger) *Client {
	c := &Client{
		host:       cfg.Host,
		topic:      cfg.BundleID,
		httpClient: cfg.HTTPClient,
		logger:     logger.Named("apns"),
		now:        time.Now,
	}
	if c.host == "" {
		c.host = DevelopmentHost
		if cfg.Production {
			c.host = ProductionHost
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

func (c *Client) withKey(key *ecdsa.PrivateKey, keyID, teamID string) *Client {
	c.token = newProviderToken(key, keyID, teamID)
	c.enabled = true
	c.logger.Info("APNs client initialized", zap.String("host", c.host), zap.String("topic", c.topic))
	return c
}

// Enabled reports whether credential material was loaded
func (c *Client) Enabled() bool {
	return c.enabled
}

// ValidToken reports whether token is a syntactically valid device token
func (c *Client) ValidToken(token string) bool {
	return IsValidDeviceToken(token)
}

type alert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type aps struct {
	Alert alert  `json:"alert"`
	Badge int    `json:"badge"`
	Sound string `json:"sound"`
}

type errorResponse struct {
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Send submits one notification and maps the gateway answer onto the shared codes
func (c *Client) Send(ctx context.Context, msg push.Message) push.Result {
	if !c.enabled {
		return push.Failure(push.CodeKeyFileMissing, "APNs key file not configured")
	}
	if !IsValidDeviceToken(msg.Token) {
		return push.Failure(push.CodeInvalidToken, "invalid device token format")
	}

	body, err := c.buildPayload(msg)
	if err != nil {
		return push.Failure(push.CodeAPNSError, err.Error())
	}

	bearer, err := c.token.Bearer()
	if err != nil {
		return push.Failure(push.CodeAPNSError, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/3/device/"+msg.Token, bytes.NewReader(body))
	if err != nil {
		return push.Failure(push.CodeAPNSError, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", "bearer "+bearer)
	req.Header.Set("apns-topic", c.topic)
	req.Header.Set("apns-push-type", "alert")
	req.Header.Set("apns-priority", "10")
	req.Header.Set("apns-expiration", strconv.FormatInt(c.now().Add(time.Hour).Unix(), 10))

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("APNs request failed", zap.Error(err))
		return push.Failure(push.CodeAPNSError, err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return push.Result{Success: true, TicketID: res.Header.Get("apns-id")}
	}

	raw, _ := io.ReadAll(res.Body)
	var apiErr errorResponse
	_ = json.Unmarshal(raw, &apiErr)

	c.logger.Warn("APNs rejected notification",
		zap.Int("status", res.StatusCode),
		zap.String("reason", apiErr.Reason),
	)

	return failureFor(res.StatusCode, apiErr.Reason)
}

func failureFor(status int, reason string) push.Result {
	switch {
	case reason == reasonUnregistered || status == http.StatusGone:
		return push.Failure(push.CodeDeviceNotRegistered, "device token is no longer valid")
	case reason == reasonBadDeviceToken:
		return push.Failure(push.CodeInvalidToken, "invalid device token format")
	case reason == reasonBadTopic, reason == reasonTopicDisallowed, reason == reasonDeviceTokenNotForTopic:
		return push.Failure(push.CodeInvalidBundleID, "invalid bundle id")
	case reason != "":
		return push.Failure(push.CodeAPNSError, reason)
	default:
		return push.Failure(push.CodeAPNSError, fmt.Sprintf("APNs returned status %d", status))
	}
}

func (c *Client) buildPayload(msg push.Message) ([]byte, error) {
	payload := make(map[string]interface{}, len(msg.Data)+3)
	for k, v := range msg.Data {
		payload[k] = v
	}
	payload["type"] = msg.Type
	payload["timestamp"] = c.now().UTC().Format(time.RFC3339)
	payload["aps"] = aps{
		Alert: alert{Title: msg.Title, Body: msg.Body},
		Badge: 1,
		Sound: "default",
	}
	return json.Marshal(payload)
}

// ReceiptChunkSize bounds the batches of ticket ids handed to Receipts
func (c *Client) ReceiptChunkSize() int {
	return receiptChunkSize
}

// Receipts resolves native tickets. The gateway accepted them synchronously,
// so every apns-id is reported as delivered to Apple.
func (c *Client) Receipts(_ context.Context, ticketIDs []string) (map[string]push.Receipt, error) {
	receipts := make(map[string]push.Receipt, len(ticketIDs))
	for _, id := range ticketIDs {
		receipts[id] = push.Receipt{ID: id, Status: "ok"}
	}
	return receipts, nil
}
