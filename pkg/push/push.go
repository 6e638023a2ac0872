package push

import "context"

// Code is the normalized outcome code shared by every provider adapter
type Code string

const (
	CodeOK                  Code = ""
	CodeInvalidToken        Code = "INVALID_TOKEN"
	CodeDeviceNotRegistered Code = "DEVICE_NOT_REGISTERED"
	CodeInvalidBundleID     Code = "INVALID_BUNDLE_ID"
	CodeKeyFileMissing      Code = "KEY_FILE_MISSING"
	CodeAPNSError           Code = "APNS_ERROR"
	CodeExpoError           Code = "EXPO_ERROR"
)

// Permanent reports whether the code means the token itself can never be delivered to
func (c Code) Permanent() bool {
	return c == CodeDeviceNotRegistered || c == CodeInvalidToken
}

// Message is one notification addressed to one device token
type Message struct {
	Token string
	Title string
	Body  string
	Type  string
	Data  map[string]interface{}
}

// Result is the provider's answer for a single message
type Result struct {
	Success  bool   `json:"success"`
	TicketID string `json:"ticketId,omitempty"`
	Code     Code   `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Failure builds an unsuccessful Result
func Failure(code Code, message string) Result {
	return Result{Success: false, Code: code, Message: message}
}

// Receipt is the later-queried delivery outcome of a ticket
type Receipt struct {
	ID      string                 `json:"id"`
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Sender submits a notification to a device token
type Sender interface {
	Send(ctx context.Context, msg Message) Result
	ValidToken(token string) bool
}

// ReceiptChecker resolves tickets previously issued by Send
type ReceiptChecker interface {
	Receipts(ctx context.Context, ticketIDs []string) (map[string]Receipt, error)
	ReceiptChunkSize() int
}

// Chunk splits ids into slices of at most size elements
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
