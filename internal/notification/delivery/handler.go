package delivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/scheduler"
	"astro-backend/internal/notification/usecase"

	"github.com/gin-gonic/gin"
)

// JobRunner triggers a scheduler job on demand
type JobRunner interface {
	RunNow(ctx context.Context, job scheduler.Job) (domain.BulkResult, error)
}

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	dispatcher usecase.Dispatcher
	fanOut     usecase.FanOut
	reconciler usecase.Reconciler
	inbox      usecase.InboxUsecase
	jobs       JobRunner
}

// NewNotificationHandler creates a new NotificationHandler. jobs may be nil when the scheduler is off.
func NewNotificationHandler(
	dispatcher usecase.Dispatcher,
	fanOut usecase.FanOut,
	reconciler usecase.Reconciler,
	inbox usecase.InboxUsecase,
	jobs JobRunner,
) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		fanOut:     fanOut,
		reconciler: reconciler,
		inbox:      inbox,
		jobs:       jobs,
	}
}

// RegisterRoutes mounts the handlers on a group already guarded by AuthMiddleware
func (h *NotificationHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("", h.ListNotifications)
	g.POST("/send", h.Send)
	g.POST("/send-bulk", h.SendBulk)
	g.POST("/send-to-followers", h.SendToFollowers)
	g.GET("/:id/status", h.CheckStatus)
	g.PUT("/:id/read", h.MarkRead)
	g.PUT("/read-all", h.MarkAllRead)
	g.GET("/preferences", h.GetPreferences)
	g.PUT("/preferences", h.UpdatePreferences)
	g.POST("/token", h.RegisterToken)
	g.DELETE("/token/:token", h.UnregisterToken)
	g.POST("/scheduler/:job/run", h.RunJob)
}

type SendRequest struct {
	UserID string                 `json:"userId" binding:"required"`
	Title  string                 `json:"title" binding:"required"`
	Body   string                 `json:"body"`
	Data   map[string]interface{} `json:"data"`
	Type   string                 `json:"type"`
}

type SendBulkRequest struct {
	UserIDs []string               `json:"userIds" binding:"required"`
	Title   string                 `json:"title" binding:"required"`
	Body    string                 `json:"body"`
	Data    map[string]interface{} `json:"data"`
	Type    string                 `json:"type"`
}

type SendToFollowersRequest struct {
	FollowedUserID string                 `json:"followedUserId" binding:"required"`
	Title          string                 `json:"title" binding:"required"`
	Body           string                 `json:"body"`
	Data           map[string]interface{} `json:"data"`
	Type           string                 `json:"type"`
}

// PreferencesRequest updates only the flags that are present
type PreferencesRequest struct {
	Enabled           *bool `json:"enabled"`
	Messages          *bool `json:"messages"`
	Following         *bool `json:"following"`
	Readings          *bool `json:"readings"`
	Promotions        *bool `json:"promotions"`
	DailyHoroscope    *bool `json:"dailyHoroscope"`
	MoonPhases        *bool `json:"moonPhases"`
	PlanetaryTransits *bool `json:"planetaryTransits"`
}

type RegisterTokenRequest struct {
	Token       string `json:"token" binding:"required"`
	DeviceClass string `json:"deviceClass"`
}

// Send delivers one notification to one user
// POST /api/notifications/send
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := domain.ParseCategory(req.Type, domain.CategoryGeneral)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.dispatcher.Send(c.Request.Context(), req.UserID, domain.Notification{
		Category: category,
		Title:    req.Title,
		Body:     req.Body,
		Data:     req.Data,
	})
	c.JSON(sendStatus(res.Success, res.Error), res)
}

// SendBulk delivers one notification to every listed user
// POST /api/notifications/send-bulk
func (h *NotificationHandler) SendBulk(c *gin.Context) {
	var req SendBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := domain.ParseCategory(req.Type, domain.CategoryGeneral)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.fanOut.SendBulk(c.Request.Context(), req.UserIDs, domain.Notification{
		Category: category,
		Title:    req.Title,
		Body:     req.Body,
		Data:     req.Data,
	})
	c.JSON(sendStatus(res.Success, res.Error), res)
}

// SendToFollowers delivers one notification to every follower of a user
// POST /api/notifications/send-to-followers
func (h *NotificationHandler) SendToFollowers(c *gin.Context) {
	var req SendToFollowersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := domain.ParseCategory(req.Type, domain.CategoryFollowing)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.fanOut.SendToFollowers(c.Request.Context(), req.FollowedUserID, domain.Notification{
		Category: category,
		Title:    req.Title,
		Body:     req.Body,
		Data:     req.Data,
	})
	c.JSON(sendStatus(res.Success, res.Error), res)
}

// CheckStatus returns the delivery receipts of a stored notification
// GET /api/notifications/:id/status
func (h *NotificationHandler) CheckStatus(c *gin.Context) {
	res := h.reconciler.CheckStatus(c.Request.Context(), c.Param("id"))
	c.JSON(sendStatus(res.Success, res.Error), res)
}

// ListNotifications returns the caller's stored notifications, newest first
// GET /api/notifications?type=readings&limit=50&offset=0
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID := c.GetString("userID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var categoryPtr *domain.Category
	if t := c.Query("type"); t != "" {
		category, err := domain.ParseCategory(t, domain.CategoryGeneral)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		categoryPtr = &category
	}

	notifications, total, err := h.inbox.ListNotifications(c.Request.Context(), userID, categoryPtr, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
	})
}

// MarkRead marks one of the caller's notifications as read
// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.inbox.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllRead marks every unread notification of the caller as read
// PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString("userID")

	updated, err := h.inbox.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}

// GetPreferences returns the caller's preferences, or the defaults when none are stored
// GET /api/notifications/preferences
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.inbox.GetPreferences(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences merges the given flags into the caller's preferences
// PUT /api/notifications/preferences
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID := c.GetString("userID")

	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs, err := h.inbox.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	req.apply(prefs)

	if err := h.inbox.UpdatePreferences(c.Request.Context(), prefs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (r PreferencesRequest) apply(p *domain.Preferences) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Enabled, r.Enabled)
	set(&p.Messages, r.Messages)
	set(&p.Following, r.Following)
	set(&p.Readings, r.Readings)
	set(&p.Promotions, r.Promotions)
	set(&p.DailyHoroscope, r.DailyHoroscope)
	set(&p.MoonPhases, r.MoonPhases)
	set(&p.PlanetaryTransits, r.PlanetaryTransits)
}

// RegisterToken stores the caller's device token
// POST /api/notifications/token
func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	userID := c.GetString("userID")

	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deviceClass, err := domain.ParseDeviceClass(req.DeviceClass)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.inbox.RegisterToken(c.Request.Context(), userID, req.Token, deviceClass); err != nil {
		if errors.Is(err, usecase.ErrInvalidPushToken) || errors.Is(err, usecase.ErrUnsupportedDeviceClass) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UnregisterToken removes one of the caller's device tokens
// DELETE /api/notifications/token/:token
func (h *NotificationHandler) UnregisterToken(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.inbox.UnregisterToken(c.Request.Context(), userID, c.Param("token")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RunJob triggers a scheduled send immediately
// POST /api/notifications/scheduler/:job/run
func (h *NotificationHandler) RunJob(c *gin.Context) {
	if h.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler is disabled"})
		return
	}

	res, err := h.jobs.RunNow(c.Request.Context(), scheduler.Job(c.Param("job")))
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

// sendStatus maps a result onto an HTTP status
func sendStatus(success bool, code domain.ErrorCode) int {
	if success {
		return http.StatusOK
	}
	switch code {
	case domain.ErrTokenNotFound, domain.ErrNotFound, domain.ErrNoFollowers:
		return http.StatusNotFound
	case domain.ErrNotificationsDisabled, domain.ErrCategoryDisabled,
		domain.ErrInvalidToken, domain.ErrUnsupportedDevice:
		return http.StatusBadRequest
	case domain.ErrDeviceNotRegistered, domain.ErrInvalidBundleID, domain.ErrKeyFileMissing,
		domain.ErrAPNS, domain.ErrExpo:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
