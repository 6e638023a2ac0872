package usecase

import (
	"context"

	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultFanOutConcurrency = 8

type fanOut struct {
	dispatcher   Dispatcher
	followerRepo repository.FollowerRepository
	concurrency  int
	logger       *zap.Logger
}

// NewFanOut creates a new FanOut running at most concurrency dispatches at once
func NewFanOut(dispatcher Dispatcher, followerRepo repository.FollowerRepository, concurrency int, logger *zap.Logger) FanOut {
	if concurrency <= 0 {
		concurrency = defaultFanOutConcurrency
	}
	return &fanOut{
		dispatcher:   dispatcher,
		followerRepo: followerRepo,
		concurrency:  concurrency,
		logger:       logger.Named("fanout"),
	}
}

func (f *fanOut) SendBulk(ctx context.Context, userIDs []string, n domain.Notification) domain.BulkResult {
	results := make([]domain.SendResult, len(userIDs))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, userID := range userIDs {
		i, userID := i, userID
		g.Go(func() error {
			res := f.dispatcher.Send(ctx, userID, n)
			res.UserID = userID
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	f.logger.Info("bulk send finished",
		zap.String("type", string(n.Category)),
		zap.Int("recipients", len(userIDs)),
		zap.Int("failed", failed),
	)

	return domain.BulkResult{Success: true, Results: results}
}

func (f *fanOut) SendToFollowers(ctx context.Context, followedUserID string, n domain.Notification) domain.BulkResult {
	followers, err := f.followerRepo.ListFollowers(ctx, followedUserID)
	if err != nil {
		f.logger.Error("failed to fetch followers", zap.String("user_id", followedUserID), zap.Error(err))
		return domain.BulkResult{Success: false, Error: domain.ErrFollowersLookup, Message: "error fetching followers"}
	}
	if len(followers) == 0 {
		return domain.BulkResult{Success: false, Error: domain.ErrNoFollowers, Message: "no followers found"}
	}
	return f.SendBulk(ctx, followers, n)
}
