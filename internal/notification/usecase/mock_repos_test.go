package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/repository"
	"astro-backend/pkg/push"

	"github.com/google/uuid"
)

var errStore = errors.New("store unavailable")

type mockTokenRepo struct {
	mu      sync.Mutex
	tokens  map[string]*domain.PushToken
	getErr  error
	deleted []string
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*domain.PushToken)}
}

func (m *mockTokenRepo) GetToken(_ context.Context, userID string) (*domain.PushToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.tokens[userID], nil
}

func (m *mockTokenRepo) UpsertToken(_ context.Context, userID, token string, deviceClass domain.DeviceClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = &domain.PushToken{ID: uuid.NewString(), UserID: userID, Token: token, DeviceClass: deviceClass}
	return nil
}

func (m *mockTokenRepo) DeleteToken(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[userID]; ok && t.Token == token {
		delete(m.tokens, userID)
	}
	m.deleted = append(m.deleted, token)
	return nil
}

func (m *mockTokenRepo) DeleteTokensByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

type mockPreferenceRepo struct {
	mu     sync.Mutex
	prefs  map[string]*domain.Preferences
	getErr error
}

func newMockPreferenceRepo() *mockPreferenceRepo {
	return &mockPreferenceRepo{prefs: make(map[string]*domain.Preferences)}
}

func (m *mockPreferenceRepo) GetPreferences(_ context.Context, userID string) (*domain.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, ok := m.prefs[userID]; ok {
		return p, nil
	}
	return domain.DefaultPreferences(userID), nil
}

func (m *mockPreferenceRepo) UpsertPreferences(_ context.Context, prefs *domain.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[prefs.UserID] = prefs
	return nil
}

func (m *mockPreferenceRepo) ListUserIDsWithCategory(_ context.Context, category domain.Category) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, p := range m.prefs {
		if p.Allows(category) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type mockNotificationRepo struct {
	mu        sync.Mutex
	records   map[string]*domain.NotificationRecord
	createErr error
	attachErr error
	findErr   error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{records: make(map[string]*domain.NotificationRecord)}
}

func (m *mockNotificationRepo) Create(_ context.Context, rec *domain.NotificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	rec.ID = uuid.NewString()
	rec.TicketIDs = nil
	m.records[rec.ID] = rec
	return nil
}

func (m *mockNotificationRepo) AttachTickets(_ context.Context, id string, tickets []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attachErr != nil {
		return m.attachErr
	}
	rec, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	encoded, err := domain.EncodeTickets(tickets)
	if err != nil {
		return err
	}
	rec.TicketIDs = &encoded
	return nil
}

func (m *mockNotificationRepo) FindByID(_ context.Context, id string) (*domain.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.records[id], nil
}

func (m *mockNotificationRepo) ListByUserID(_ context.Context, userID string, category *domain.Category, limit, offset int) ([]*domain.NotificationRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.NotificationRecord
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		if category != nil && r.Category != *category {
			continue
		}
		all = append(all, r)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.UserID != userID {
		return repository.ErrNotFound
	}
	rec.Read = true
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.UserID == userID && !r.Read {
			r.Read = true
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type mockFollowerRepo struct {
	followers map[string][]string
	err       error
}

func (m *mockFollowerRepo) ListFollowers(_ context.Context, userID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.followers[userID], nil
}

// fakeSender answers every Send with result; it also records the messages it saw
type fakeSender struct {
	mu     sync.Mutex
	result push.Result
	valid  func(string) bool
	sent   []push.Message
}

func (s *fakeSender) Send(_ context.Context, msg push.Message) push.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.result
}

func (s *fakeSender) ValidToken(token string) bool {
	if s.valid == nil {
		return true
	}
	return s.valid(token)
}

func (s *fakeSender) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeChecker struct {
	chunkSize int
	receipts  map[string]push.Receipt
	failOn    int
	calls     [][]string
}

func (c *fakeChecker) ReceiptChunkSize() int { return c.chunkSize }

func (c *fakeChecker) Receipts(_ context.Context, ids []string) (map[string]push.Receipt, error) {
	c.calls = append(c.calls, ids)
	if c.failOn > 0 && len(c.calls) == c.failOn {
		return nil, errors.New("provider unavailable")
	}
	out := make(map[string]push.Receipt)
	for _, id := range ids {
		if r, ok := c.receipts[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}
