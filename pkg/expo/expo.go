package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"astro-backend/pkg/push"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://exp.host/--/api/v2"

	// Provider-imposed request limits
	MaxMessagesPerRequest   = 100
	MaxReceiptIDsPerRequest = 300

	errorDeviceNotRegistered = "DeviceNotRegistered"
)

var (
	bracketTokenPattern = regexp.MustCompile(`^(ExponentPushToken|ExpoPushToken)\[.+\]$`)
	uuidTokenPattern    = regexp.MustCompile(`(?i)^[a-z\d]{8}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{12}$`)
)

// IsExpoPushToken reports whether token has the syntax of an Expo push token
func IsExpoPushToken(token string) bool {
	return bracketTokenPattern.MatchString(token) || uuidTokenPattern.MatchString(token)
}

// Config holds the managed-push client settings
type Config struct {
	AccessToken string
	BaseURL     string
	HTTPClient  *http.Client
}

// Client submits messages to the Expo push service and queries receipts
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
	now         func() time.Time
}

// NewClient creates a new Expo client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
		logger:      logger.Named("expo"),
		now:         time.Now,
	}
}

type pushMessage struct {
	To        string                 `json:"to"`
	Title     string                 `json:"title,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Sound     string                 `json:"sound,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"`
}

type pushTicket struct {
	Status  string                 `json:"status"`
	ID      string                 `json:"id"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

type sendResponse struct {
	Data   []pushTicket      `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

type receiptsRequest struct {
	IDs []string `json:"ids"`
}

type receiptsResponse struct {
	Data map[string]pushTicket `json:"data"`
}

// ValidToken reports whether token is a syntactically valid Expo push token
func (c *Client) ValidToken(token string) bool {
	return IsExpoPushToken(token)
}

// Send submits a single message
func (c *Client) Send(ctx context.Context, msg push.Message) push.Result {
	return c.SendBatch(ctx, []push.Message{msg})[0]
}

// SendBatch submits messages in provider-sized chunks and returns one result per message,
// in the order of msgs. A successful result carries a ticket, not proof of delivery.
func (c *Client) SendBatch(ctx context.Context, msgs []push.Message) []push.Result {
	results := make([]push.Result, len(msgs))

	// indexes of messages that passed token validation
	var pending []int
	for i, msg := range msgs {
		if !IsExpoPushToken(msg.Token) {
			results[i] = push.Failure(push.CodeInvalidToken, "invalid Expo push token")
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += MaxMessagesPerRequest {
		end := start + MaxMessagesPerRequest
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]

		payload := make([]pushMessage, len(chunk))
		for j, idx := range chunk {
			payload[j] = c.buildMessage(msgs[idx])
		}

		tickets, err := c.sendChunk(ctx, payload)
		if err != nil {
			c.logger.Error("failed to send notification chunk", zap.Int("size", len(chunk)), zap.Error(err))
			for _, idx := range chunk {
				results[idx] = push.Failure(push.CodeExpoError, err.Error())
			}
			continue
		}

		for j, idx := range chunk {
			if j >= len(tickets) {
				results[idx] = push.Failure(push.CodeExpoError, "missing ticket in provider response")
				continue
			}
			results[idx] = ticketResult(tickets[j])
		}
	}

	return results
}

func (c *Client) buildMessage(msg push.Message) pushMessage {
	data := make(map[string]interface{}, len(msg.Data)+2)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["type"] = msg.Type
	data["timestamp"] = c.now().UTC().Format(time.RFC3339)

	return pushMessage{
		To:        msg.Token,
		Title:     msg.Title,
		Body:      msg.Body,
		Data:      data,
		Sound:     "default",
		Priority:  "high",
		ChannelID: "default",
	}
}

func ticketResult(t pushTicket) push.Result {
	if t.Status == "ok" {
		return push.Result{Success: true, TicketID: t.ID}
	}
	if reason, _ := t.Details["error"].(string); reason == errorDeviceNotRegistered {
		return push.Failure(push.CodeDeviceNotRegistered, t.Message)
	}
	msg := t.Message
	if msg == "" {
		msg = "push ticket rejected"
	}
	return push.Failure(push.CodeExpoError, msg)
}

func (c *Client) sendChunk(ctx context.Context, payload []pushMessage) ([]pushTicket, error) {
	var resp sendResponse
	if err := c.post(ctx, "/push/send", payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 && len(resp.Data) == 0 {
		return nil, fmt.Errorf("expo rejected request: %s", string(resp.Errors[0]))
	}
	return resp.Data, nil
}

// ReceiptChunkSize is the maximum number of ticket ids accepted by one receipts query
func (c *Client) ReceiptChunkSize() int {
	return MaxReceiptIDsPerRequest
}

// Receipts queries delivery receipts for one chunk of ticket ids.
// Tickets whose receipt is not yet available are absent from the map.
func (c *Client) Receipts(ctx context.Context, ticketIDs []string) (map[string]push.Receipt, error) {
	if len(ticketIDs) > MaxReceiptIDsPerRequest {
		return nil, fmt.Errorf("too many receipt ids: %d > %d", len(ticketIDs), MaxReceiptIDsPerRequest)
	}

	var resp receiptsResponse
	if err := c.post(ctx, "/push/getReceipts", receiptsRequest{IDs: ticketIDs}, &resp); err != nil {
		return nil, err
	}

	receipts := make(map[string]push.Receipt, len(resp.Data))
	for id, r := range resp.Data {
		receipts[id] = push.Receipt{ID: id, Status: r.Status, Message: r.Message, Details: r.Details}
	}
	return receipts, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("expo request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read expo response: %w", err)
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("expo returned status %d: %s", res.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode expo response: %w", err)
	}
	return nil
}
