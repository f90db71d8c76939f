package scheduler

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/data/repository"
	"storefront/internal/usecase"
	"storefront/pkg/middleware"
	"storefront/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	jobTimeout      = time.Minute
	limiterMaxIdle  = 30 * time.Minute
	limiterSpec     = "@every 10m"
	pendingShortAge = 3 * 24 * time.Hour
	pendingLongAge  = 7 * 24 * time.Hour
)

// SessionCleaner removes sessions that can no longer be used
type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

// PendingCounter counts accounts still waiting for activation
type PendingCounter interface {
	CountPending(ctx context.Context, olderThan time.Duration) (int64, error)
}

type job struct {
	name string
	spec string
	run  func(context.Context)
}

// Scheduler runs the periodic housekeeping jobs
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionCleaner
	users    PendingCounter
	limiter  *middleware.RateLimiter
	log      *zap.Logger
}

func New(repo *repository.Repository, users usecase.UserService, limiter *middleware.RateLimiter, config utils.SchedulerConfig, log *zap.Logger) (*Scheduler, error) {
	log = log.With(zap.String("service", "scheduler"))
	cronLog := cronLogger{log: log}

	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		sessions: repo.Session,
		users:    users,
		limiter:  limiter,
		log:      log,
	}

	jobs := []job{
		{"session_cleanup", config.SessionCleanupSpec, s.CleanSessions},
		{"pending_report", config.PendingReportSpec, s.ReportPending},
	}
	if limiter != nil {
		jobs = append(jobs, job{"rate_limiter_cleanup", limiterSpec, s.CleanLimiter})
	}

	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		run := j.run
		if _, err := s.cron.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			run(ctx)
		}); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", j.name, j.spec, err)
		}
		log.Info("Job scheduled", zap.String("job", j.name), zap.String("spec", j.spec))
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs or for ctx to end
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out")
	}
}

// CleanSessions deletes expired and long-revoked sessions
func (s *Scheduler) CleanSessions(ctx context.Context) {
	removed, err := s.sessions.CleanExpiredSessions(ctx)
	if err != nil {
		s.log.Error("Session cleanup failed", zap.Error(err))
		return
	}
	s.log.Info("Session cleanup finished", zap.Int64("removed", removed))
}

// ReportPending logs how many accounts are stuck before activation
func (s *Scheduler) ReportPending(ctx context.Context) {
	threeDays, err := s.users.CountPending(ctx, pendingShortAge)
	if err != nil {
		s.log.Error("Pending account report failed", zap.Error(err))
		return
	}
	week, err := s.users.CountPending(ctx, pendingLongAge)
	if err != nil {
		s.log.Error("Pending account report failed", zap.Error(err))
		return
	}
	s.log.Info("Pending accounts",
		zap.Int64("older_than_3_days", threeDays),
		zap.Int64("older_than_week", week))
}

func (s *Scheduler) CleanLimiter(context.Context) {
	if removed := s.limiter.Cleanup(limiterMaxIdle); removed > 0 {
		s.log.Debug("Rate limiter entries dropped", zap.Int("removed", removed))
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
