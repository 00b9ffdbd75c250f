package cron_feature

import (
	"context"
	"fmt"
	"time"

	"byov-backend/internal/config"
	"byov-backend/internal/features/dashsync"
	"byov-backend/internal/features/enrollment"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RetryScheduler periodically re-ships failed uploads for every enrollment
// that still has any. Each enrollment is retried independently so one bad
// record cannot starve the rest.
type RetryScheduler struct {
	schedule   string
	enrollRepo enrollment.EnrollmentRepository
	syncSvc    dashsync.SyncService
	logger     *zap.Logger

	scheduler *cron.Cron
	entryID   cron.EntryID
}

func NewRetryScheduler(
	cfg *config.Config,
	enrollRepo enrollment.EnrollmentRepository,
	syncSvc dashsync.SyncService,
	logger *zap.Logger,
) *RetryScheduler {
	return &RetryScheduler{
		schedule:   cfg.RetrySchedule,
		enrollRepo: enrollRepo,
		syncSvc:    syncSvc,
		logger:     logger.With(zap.String("component", "retry_scheduler")),
	}
}

func (s *RetryScheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("retry schedule not configured; scheduler disabled")
		return nil
	}
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid retry schedule %q: %w", s.schedule, err)
	}

	s.scheduler = cron.New()
	entryID, err := s.scheduler.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.scheduler.Start()

	s.logger.Info("retry scheduler started", zap.String("schedule", s.schedule))
	return nil
}

func (s *RetryScheduler) Stop() {
	if s.scheduler == nil {
		return
	}
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	s.logger.Info("retry scheduler stopped")
}

func (s *RetryScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	recs, err := s.enrollRepo.ListWithFailedUploads(ctx)
	if err != nil {
		s.logger.Error("could not list enrollments with failed uploads", zap.Error(err))
		return
	}
	if len(recs) == 0 {
		return
	}

	s.logger.Info("retrying failed uploads", zap.Int("enrollments", len(recs)))

	for _, rec := range recs {
		result, err := s.syncSvc.RetryFailed(ctx, rec.ID.Hex())
		if err != nil {
			s.logger.Warn("scheduled retry failed",
				zap.String("enrollment_id", rec.ID.Hex()),
				zap.String("tech_id", rec.TechID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("scheduled retry done",
			zap.String("enrollment_id", rec.ID.Hex()),
			zap.Int("retried", result.RetriedCount),
			zap.Int("remaining", result.RemainingFailed),
		)
	}
}

// RegisterLifecycle ties the scheduler to the fx application lifecycle.
func RegisterLifecycle(lc fx.Lifecycle, s *RetryScheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
