package usecase

import (
	"context"

	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/repository"
	"astro-backend/pkg/metrics"
	"astro-backend/pkg/push"

	"go.uber.org/zap"
)

type reconciler struct {
	notificationRepo repository.NotificationRepository
	checkers         ReceiptCheckers
	logger           *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(notificationRepo repository.NotificationRepository, checkers ReceiptCheckers, logger *zap.Logger) Reconciler {
	return &reconciler{
		notificationRepo: notificationRepo,
		checkers:         checkers,
		logger:           logger.Named("receipts"),
	}
}

func (r *reconciler) CheckStatus(ctx context.Context, notificationID string) domain.StatusResult {
	log := r.logger.With(zap.String("notification_id", notificationID))

	rec, err := r.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		log.Error("failed to load notification", zap.Error(err))
		return domain.StatusResult{Success: false, Error: domain.ErrStoreFailed, Message: "failed to load notification"}
	}
	if rec == nil {
		return domain.StatusResult{Success: false, Error: domain.ErrNotFound, Message: "notification not found"}
	}

	tickets, err := rec.Tickets()
	if err != nil {
		log.Error("stored tickets are unreadable", zap.Error(err))
		tickets = nil
	}
	if tickets == nil {
		return domain.StatusResult{Success: false, Error: domain.ErrNotFound, Message: "notification not found"}
	}

	checker, ok := r.checkers[rec.DeviceClass]
	if !ok {
		return domain.StatusResult{Success: false, Error: domain.ErrUnsupportedDevice, Message: "unsupported device class"}
	}

	receipts := make([]push.Receipt, 0, len(tickets))
	for _, chunk := range push.Chunk(tickets, checker.ReceiptChunkSize()) {
		found, err := checker.Receipts(ctx, chunk)
		if err != nil {
			log.Error("failed to fetch receipts chunk", zap.Int("size", len(chunk)), zap.Error(err))
			continue
		}
		for _, id := range chunk {
			if receipt, ok := found[id]; ok {
				receipts = append(receipts, receipt)
				metrics.ReceiptsChecked.WithLabelValues(receipt.Status).Inc()
			}
		}
	}

	return domain.StatusResult{Success: true, Receipts: receipts}
}
