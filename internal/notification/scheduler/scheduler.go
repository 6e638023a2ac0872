package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"astro-backend/internal/notification/domain"
	"astro-backend/internal/notification/repository"
	"astro-backend/internal/notification/usecase"
	"astro-backend/pkg/metrics"

	"go.uber.org/zap"
)

// Job names a recurring scheduled send
type Job string

const (
	JobDailyHoroscope   Job = "daily_horoscope"
	JobMoonPhase        Job = "moon_phase"
	JobPlanetaryTransit Job = "planetary_transit"
)

var ErrUnknownJob = errors.New("unknown scheduler job")

// Category returns the notification category a job sends
func (j Job) Category() (domain.Category, bool) {
	switch j {
	case JobDailyHoroscope:
		return domain.CategoryDailyHoroscope, true
	case JobMoonPhase:
		return domain.CategoryMoonPhase, true
	case JobPlanetaryTransit:
		return domain.CategoryPlanetaryTransit, true
	}
	return "", false
}

// Schedules maps each job to its trigger time; a job without an entry never fires on its own
type Schedules map[Job]Schedule

// NotificationScheduler triggers the daily category sends
type NotificationScheduler struct {
	preferenceRepo repository.PreferenceRepository
	userRepo       repository.UserRepository
	fanOut         usecase.FanOut
	content        ContentSource
	guard          DeliveryGuard
	schedules      Schedules
	loc            *time.Location
	logger         *zap.Logger
	now            func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewNotificationScheduler creates a new scheduler. A nil guard disables the per-day delivery check.
func NewNotificationScheduler(
	preferenceRepo repository.PreferenceRepository,
	userRepo repository.UserRepository,
	fanOut usecase.FanOut,
	content ContentSource,
	guard DeliveryGuard,
	schedules Schedules,
	loc *time.Location,
	logger *zap.Logger,
) *NotificationScheduler {
	if guard == nil {
		guard = NoopGuard{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationScheduler{
		preferenceRepo: preferenceRepo,
		userRepo:       userRepo,
		fanOut:         fanOut,
		content:        content,
		guard:          guard,
		schedules:      schedules,
		loc:            loc,
		logger:         logger.Named("scheduler"),
		now:            time.Now,
		stopChan:       make(chan struct{}),
	}
}

// Start runs one timer loop per job until ctx is done or Stop is called
func (s *NotificationScheduler) Start(ctx context.Context) {
	for _, job := range []Job{JobDailyHoroscope, JobMoonPhase, JobPlanetaryTransit} {
		sched, ok := s.schedules[job]
		if !ok {
			continue
		}
		s.logger.Info("Scheduling job", zap.String("job", string(job)), zap.String("schedule", sched.String()))
		s.wg.Add(1)
		go s.loop(ctx, job, sched)
	}
}

// Stop ends the timer loops and waits for in-flight runs
func (s *NotificationScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *NotificationScheduler) loop(ctx context.Context, job Job, sched Schedule) {
	defer s.wg.Done()

	for {
		next := sched.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			// runs may overlap the next tick
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if _, err := s.RunNow(ctx, job); err != nil {
					s.logger.Error("Scheduled run failed", zap.String("job", string(job)), zap.Error(err))
				}
			}()
		case <-s.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// RunNow executes job immediately and returns the combined fan-out result
func (s *NotificationScheduler) RunNow(ctx context.Context, job Job) (domain.BulkResult, error) {
	category, ok := job.Category()
	if !ok {
		return domain.BulkResult{}, ErrUnknownJob
	}

	started := time.Now()
	log := s.logger.With(zap.String("job", string(job)))

	userIDs, err := s.preferenceRepo.ListUserIDsWithCategory(ctx, category)
	if err != nil {
		metrics.ObserveSchedulerRun(string(job), "failed", started)
		return domain.BulkResult{}, err
	}

	today := s.now().In(s.loc)
	userIDs = s.claim(ctx, category, today, userIDs)
	if len(userIDs) == 0 {
		log.Info("No recipients for scheduled job")
		metrics.ObserveSchedulerRun(string(job), "ok", started)
		return domain.BulkResult{Success: true, Results: []domain.SendResult{}}, nil
	}

	audiences := map[string][]string{"": userIDs}
	if job == JobDailyHoroscope {
		audiences = s.groupBySign(ctx, userIDs)
	}

	signs := make([]string, 0, len(audiences))
	for sign := range audiences {
		signs = append(signs, sign)
	}
	sort.Strings(signs)

	combined := domain.BulkResult{Success: true, Results: make([]domain.SendResult, 0, len(userIDs))}
	for _, sign := range signs {
		c, err := s.content.ContentFor(ctx, category, ContentContext{Date: today, Sign: sign})
		if err != nil {
			log.Error("Failed to get scheduled content", zap.String("sign", sign), zap.Error(err))
			continue
		}
		res := s.fanOut.SendBulk(ctx, audiences[sign], domain.Notification{
			Category: category,
			Title:    c.Title,
			Body:     c.Body,
			Data:     c.Data,
		})
		combined.Results = append(combined.Results, res.Results...)
	}

	sent := 0
	for _, r := range combined.Results {
		if r.Success {
			sent++
		}
	}
	log.Info("Scheduled job finished", zap.Int("recipients", len(combined.Results)), zap.Int("sent", sent))
	metrics.ObserveSchedulerRun(string(job), "ok", started)

	return combined, nil
}

func (s *NotificationScheduler) claim(ctx context.Context, category domain.Category, day time.Time, userIDs []string) []string {
	claimed := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if s.guard.Claim(ctx, category, day, id) {
			claimed = append(claimed, id)
		}
	}
	return claimed
}

// groupBySign splits users by zodiac sign; users without a known birth date share the "" audience
func (s *NotificationScheduler) groupBySign(ctx context.Context, userIDs []string) map[string][]string {
	groups := make(map[string][]string)

	births, err := s.userRepo.BirthDates(ctx, userIDs)
	if err != nil {
		s.logger.Warn("Failed to load birth dates, sending generic horoscope", zap.Error(err))
		groups[""] = userIDs
		return groups
	}

	for _, id := range userIDs {
		sign := ""
		if birth, ok := births[id]; ok {
			sign = ZodiacSign(birth)
		}
		groups[sign] = append(groups[sign], id)
	}
	return groups
}
