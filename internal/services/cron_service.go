package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/metrics"
)

// Cron schedules, second minute hour day month weekday
const (
	sessionCleanupSchedule = "0 0 * * * *"
	departureSyncSchedule  = "0 */15 * * * *"
	cronJobTimeout         = 2 * time.Minute
)

// SessionCleaner removes stale refresh sessions
type SessionCleaner interface {
	CleanupSessions(ctx context.Context) (int64, error)
}

// DepartureSyncer marks full departures sold out
type DepartureSyncer interface {
	SyncSoldOut(ctx context.Context) (int64, error)
}

// CronService manages scheduled maintenance jobs
type CronService struct {
	cron       *cron.Cron
	sessions   SessionCleaner
	departures DepartureSyncer
	logger     *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(sessions SessionCleaner, departures DepartureSyncer, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:       cron.New(cron.WithSeconds()),
		sessions:   sessions,
		departures: departures,
		logger:     logger,
	}
}

// Start schedules the jobs and starts the scheduler
func (s *CronService) Start() error {
	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) (int64, error)
	}{
		{"cleanup_refresh_sessions", sessionCleanupSchedule, s.sessions.CleanupSessions},
		{"sync_soldout_departures", departureSyncSchedule, s.departures.SyncSoldOut},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.schedule, func() { s.runJob(job.name, job.run) }); err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", job.name, err)
		}
		s.logger.WithFields(logrus.Fields{"job": job.name, "schedule": job.schedule}).Info("Cron job scheduled")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Cron service stopped")
}

// RunNow runs both jobs once, synchronously
func (s *CronService) RunNow() {
	s.runJob("cleanup_refresh_sessions", s.sessions.CleanupSessions)
	s.runJob("sync_soldout_departures", s.departures.SyncSoldOut)
}

func (s *CronService) runJob(name string, run func(context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), cronJobTimeout)
	defer cancel()

	start := time.Now()
	affected, err := run(ctx)
	entry := s.logger.WithFields(logrus.Fields{
		"job":         name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		metrics.CronJobRuns.WithLabelValues(name, "error").Inc()
		entry.WithError(err).Error("Cron job failed")
		return
	}
	metrics.CronJobRuns.WithLabelValues(name, "ok").Inc()
	entry.WithField("affected", affected).Info("Cron job finished")
}

// Entries reports the next and previous run of each scheduled job
func (s *CronService) Entries() []map[string]interface{} {
	entries := s.cron.Entries()
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{"id": e.ID, "next_run": e.Next, "prev_run": e.Prev})
	}
	return out
}
