package usecase

import (
	"context"

	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/repository"
	"astro-backend/pkg/metrics"
	"astro-backend/pkg/push"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type dispatcher struct {
	tokenRepo        repository.TokenRepository
	preferenceRepo   repository.PreferenceRepository
	notificationRepo repository.NotificationRepository
	senders          Senders
	logger           *zap.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	tokenRepo repository.TokenRepository,
	preferenceRepo repository.PreferenceRepository,
	notificationRepo repository.NotificationRepository,
	senders Senders,
	logger *zap.Logger,
) Dispatcher {
	return &dispatcher{
		tokenRepo:        tokenRepo,
		preferenceRepo:   preferenceRepo,
		notificationRepo: notificationRepo,
		senders:          senders,
		logger:           logger.Named("dispatcher"),
	}
}

func (d *dispatcher) Send(ctx context.Context, userID string, n domain.Notification) domain.SendResult {
	log := d.logger.With(zap.String("user_id", userID), zap.String("type", string(n.Category)))

	token, err := d.tokenRepo.GetToken(ctx, userID)
	if err != nil {
		log.Error("failed to load push token", zap.Error(err))
		return domain.Failed(domain.ErrTokenNotFound, "push token not found")
	}
	if token == nil {
		return domain.Failed(domain.ErrTokenNotFound, "push token not found")
	}

	prefs, err := d.preferenceRepo.GetPreferences(ctx, userID)
	if err != nil {
		log.Error("failed to load notification preferences", zap.Error(err))
		return domain.Failed(domain.ErrPreferencesNotFound, "notification preferences not found")
	}

	sender, ok := d.senders[token.DeviceClass]
	if !ok {
		log.Warn("no sender for device class", zap.String("device_class", string(token.DeviceClass)))
		return domain.Failed(domain.ErrUnsupportedDevice, "unsupported device class")
	}

	if !prefs.Enabled {
		return domain.Failed(domain.ErrNotificationsDisabled, "notifications are disabled for this user")
	}
	if !prefs.CategoryEnabled(n.Category) {
		return domain.Failed(domain.ErrCategoryDisabled, string(n.Category)+" notifications are disabled")
	}

	res := sender.Send(ctx, push.Message{
		Token: token.Token,
		Title: n.Title,
		Body:  n.Body,
		Type:  string(n.Category),
		Data:  n.Data,
	})
	metrics.PushSent.WithLabelValues(string(token.DeviceClass), codeLabel(res.Code)).Inc()

	if !res.Success {
		if res.Code.Permanent() {
			d.removeToken(ctx, log, token, res.Code)
		}
		log.Warn("push rejected", zap.String("code", string(res.Code)), zap.String("reason", res.Message))
		return domain.Failed(domain.ErrorCode(res.Code), res.Message)
	}

	var tickets []string
	if res.TicketID != "" {
		tickets = []string{res.TicketID}
	}

	rec := &domain.NotificationRecord{
		UserID:      userID,
		Category:    n.Category,
		Title:       n.Title,
		Body:        n.Body,
		Data:        datatypes.JSONMap(copyData(n.Data)),
		DeviceClass: token.DeviceClass,
	}
	if err := d.notificationRepo.Create(ctx, rec); err != nil {
		// the provider already accepted the message
		log.Error("failed to store notification", zap.Error(err))
		return domain.SendResult{Success: true, Tickets: tickets}
	}

	if err := d.notificationRepo.AttachTickets(ctx, rec.ID, tickets); err != nil {
		log.Error("failed to attach tickets to notification", zap.String("notification_id", rec.ID), zap.Error(err))
	}

	return domain.SendResult{Success: true, NotificationID: rec.ID, Tickets: tickets}
}

func (d *dispatcher) removeToken(ctx context.Context, log *zap.Logger, token *domain.PushToken, code push.Code) {
	if err := d.tokenRepo.DeleteToken(ctx, token.UserID, token.Token); err != nil {
		log.Error("failed to remove unusable push token", zap.String("code", string(code)), zap.Error(err))
		return
	}
	metrics.TokensRemoved.WithLabelValues(string(code)).Inc()
	log.Info("removed unusable push token", zap.String("code", string(code)))
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func codeLabel(code push.Code) string {
	if code == push.CodeOK {
		return "OK"
	}
	return string(code)
}
