package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/scheduler"
	"astro-backend/internal/notification/usecase"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-handlers"

type fakeDispatcher struct {
	result   domain.SendResult
	lastUser string
	lastN    domain.Notification
}

func (f *fakeDispatcher) Send(_ context.Context, userID string, n domain.Notification) domain.SendResult {
	f.lastUser = userID
	f.lastN = n
	return f.result
}

type fakeFanOut struct {
	bulk      domain.BulkResult
	followers domain.BulkResult
	lastIDs   []string
	lastN     domain.Notification
}

func (f *fakeFanOut) SendBulk(_ context.Context, userIDs []string, n domain.Notification) domain.BulkResult {
	f.lastIDs = userIDs
	f.lastN = n
	return f.bulk
}

func (f *fakeFanOut) SendToFollowers(_ context.Context, _ string, n domain.Notification) domain.BulkResult {
	f.lastN = n
	return f.followers
}

type fakeReconciler struct{ result domain.StatusResult }

func (f *fakeReconciler) CheckStatus(context.Context, string) domain.StatusResult { return f.result }

type fakeInbox struct {
	prefs       map[string]*domain.Preferences
	registerErr error
	markReadErr error
	registered  []string
	lastLimit   int
	lastType    *domain.Category
}

func (f *fakeInbox) ListNotifications(_ context.Context, _ string, category *domain.Category, limit, _ int) ([]*domain.NotificationRecord, int64, error) {
	f.lastLimit = limit
	f.lastType = category
	return []*domain.NotificationRecord{{ID: "n1", Title: "hello"}}, 1, nil
}

func (f *fakeInbox) MarkRead(context.Context, string, string) error { return f.markReadErr }

func (f *fakeInbox) MarkAllRead(context.Context, string) (int64, error) { return 3, nil }

func (f *fakeInbox) GetPreferences(_ context.Context, userID string) (*domain.Preferences, error) {
	if p, ok := f.prefs[userID]; ok {
		return p, nil
	}
	return domain.DefaultPreferences(userID), nil
}

func (f *fakeInbox) UpdatePreferences(_ context.Context, prefs *domain.Preferences) error {
	f.prefs[prefs.UserID] = prefs
	return nil
}

func (f *fakeInbox) RegisterToken(_ context.Context, userID, token string, _ domain.DeviceClass) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, userID+":"+token)
	return nil
}

func (f *fakeInbox) UnregisterToken(context.Context, string, string) error { return nil }

type fakeJobs struct{}

func (fakeJobs) RunNow(_ context.Context, job scheduler.Job) (domain.BulkResult, error) {
	if _, ok := job.Category(); !ok {
		return domain.BulkResult{}, scheduler.ErrUnknownJob
	}
	return domain.BulkResult{Success: true, Results: []domain.SendResult{}}, nil
}

type handlerFixture struct {
	dispatcher *fakeDispatcher
	fanOut     *fakeFanOut
	reconciler *fakeReconciler
	inbox      *fakeInbox
	router     *gin.Engine
}

func newHandlerFixture() *handlerFixture {
	gin.SetMode(gin.TestMode)
	f := &handlerFixture{
		dispatcher: &fakeDispatcher{},
		fanOut:     &fakeFanOut{},
		reconciler: &fakeReconciler{},
		inbox:      &fakeInbox{prefs: map[string]*domain.Preferences{}},
	}
	h := NewNotificationHandler(f.dispatcher, f.fanOut, f.reconciler, f.inbox, fakeJobs{})
	f.router = gin.New()
	g := f.router.Group("/api/notifications")
	g.Use(AuthMiddleware(testSecret))
	h.RegisterRoutes(g)
	return f
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "caller"))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSendHandler_Success(t *testing.T) {
	f := newHandlerFixture()
	f.dispatcher.result = domain.SendResult{Success: true, NotificationID: "n1", Tickets: []string{"t1"}}

	w := f.do(t, http.MethodPost, "/api/notifications/send", gin.H{
		"userId": "u1", "title": "Hi", "body": "There", "type": "readings", "data": gin.H{"k": "v"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var res domain.SendResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "n1", res.NotificationID)
	assert.Equal(t, "u1", f.dispatcher.lastUser)
	assert.Equal(t, domain.CategoryReadings, f.dispatcher.lastN.Category)
	assert.Equal(t, "v", f.dispatcher.lastN.Data["k"])
}

func TestSendHandler_DefaultsToGeneral(t *testing.T) {
	f := newHandlerFixture()
	f.dispatcher.result = domain.SendResult{Success: true}

	w := f.do(t, http.MethodPost, "/api/notifications/send", gin.H{"userId": "u1", "title": "Hi"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.CategoryGeneral, f.dispatcher.lastN.Category)
}

func TestSendHandler_FailureStatuses(t *testing.T) {
	cases := map[domain.ErrorCode]int{
		domain.ErrTokenNotFound:         http.StatusNotFound,
		domain.ErrCategoryDisabled:      http.StatusBadRequest,
		domain.ErrNotificationsDisabled: http.StatusBadRequest,
		domain.ErrDeviceNotRegistered:   http.StatusBadGateway,
		domain.ErrExpo:                  http.StatusBadGateway,
		domain.ErrPreferencesNotFound:   http.StatusInternalServerError,
	}
	for code, status := range cases {
		t.Run(string(code), func(t *testing.T) {
			f := newHandlerFixture()
			f.dispatcher.result = domain.Failed(code, "nope")

			w := f.do(t, http.MethodPost, "/api/notifications/send", gin.H{"userId": "u1", "title": "Hi"})

			assert.Equal(t, status, w.Code)
			var res domain.SendResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.False(t, res.Success)
			assert.Equal(t, code, res.Error)
		})
	}
}

func TestSendHandler_Validation(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodPost, "/api/notifications/send", gin.H{"title": "no user"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/notifications/send", gin.H{"userId": "u1", "title": "Hi", "type": "spam"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendBulkHandler(t *testing.T) {
	f := newHandlerFixture()
	f.fanOut.bulk = domain.BulkResult{Success: true, Results: []domain.SendResult{
		{UserID: "a", Success: true},
		{UserID: "b", Success: false, Error: domain.ErrTokenNotFound},
	}}

	w := f.do(t, http.MethodPost, "/api/notifications/send-bulk", gin.H{"userIds": []string{"a", "b"}, "title": "Hi"})

	assert.Equal(t, http.StatusOK, w.Code)
	var res domain.BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res.Results, 2)
	assert.Equal(t, []string{"a", "b"}, f.fanOut.lastIDs)
}

func TestSendToFollowersHandler(t *testing.T) {
	f := newHandlerFixture()
	f.fanOut.followers = domain.BulkResult{Success: false, Error: domain.ErrNoFollowers, Message: "no followers found"}

	w := f.do(t, http.MethodPost, "/api/notifications/send-to-followers", gin.H{"followedUserId": "star", "title": "New post"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.CategoryFollowing, f.fanOut.lastN.Category)
}

func TestCheckStatusHandler(t *testing.T) {
	f := newHandlerFixture()
	f.reconciler.result = domain.StatusResult{Success: false, Error: domain.ErrNotFound}

	w := f.do(t, http.MethodGet, "/api/notifications/n1/status", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListNotificationsHandler(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodGet, "/api/notifications?type=moon_phase&limit=20", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, f.inbox.lastLimit)
	require.NotNil(t, f.inbox.lastType)
	assert.Equal(t, domain.CategoryMoonPhase, *f.inbox.lastType)

	var body struct {
		Notifications []domain.NotificationRecord `json:"notifications"`
		Total         int64                       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.Total)
	assert.Equal(t, "n1", body.Notifications[0].ID)
}

func TestMarkReadHandler(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodPut, "/api/notifications/n1/read", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	f.inbox.markReadErr = usecase.ErrNotificationNotFound
	w = f.do(t, http.MethodPut, "/api/notifications/n1/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPut, "/api/notifications/read-all", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":3`)
}

func TestPreferencesHandler_PartialUpdate(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodPut, "/api/notifications/preferences", gin.H{"promotions": true, "moonPhases": false})
	require.Equal(t, http.StatusOK, w.Code)

	stored := f.inbox.prefs["caller"]
	require.NotNil(t, stored)
	assert.True(t, stored.Promotions)
	assert.False(t, stored.MoonPhases)
	assert.True(t, stored.Enabled)
	assert.True(t, stored.DailyHoroscope)

	w = f.do(t, http.MethodGet, "/api/notifications/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var prefs domain.Preferences
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prefs))
	assert.Equal(t, "caller", prefs.UserID)
	assert.True(t, prefs.Promotions)
}

func TestRegisterTokenHandler(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodPost, "/api/notifications/token", gin.H{"token": "ExponentPushToken[x]"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"caller:ExponentPushToken[x]"}, f.inbox.registered)

	w = f.do(t, http.MethodPost, "/api/notifications/token", gin.H{"token": "t", "deviceClass": "web"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.inbox.registerErr = usecase.ErrInvalidPushToken
	w = f.do(t, http.MethodPost, "/api/notifications/token", gin.H{"token": "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/api/notifications/token/ExponentPushToken%5Bx%5D", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunJobHandler(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, http.MethodPost, "/api/notifications/scheduler/moon_phase/run", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/notifications/scheduler/eclipse/run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
