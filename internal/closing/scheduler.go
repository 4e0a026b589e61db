package closing

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"storatrack-backend/config"
	"storatrack-backend/internal/period"
)

// CompanyLister lists the companies a scheduled closing covers.
type CompanyLister interface {
	ActiveCompanyIDs(ctx context.Context) ([]int64, error)
}

// Scheduler closes the previous month for every active company on a cron schedule.
type Scheduler struct {
	cfg       config.ClosingConfig
	companies CompanyLister
	pool      *WorkerPool
	loc       *time.Location
	now       func() time.Time
	log       logrus.FieldLogger
}

// NewScheduler creates a scheduler whose cron expression is evaluated in loc.
func NewScheduler(cfg config.ClosingConfig, companies CompanyLister, closer Closer, loc *time.Location, log logrus.FieldLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cfg:       cfg,
		companies: companies,
		pool:      NewWorkerPool(cfg.WorkerPoolSize, closer, cfg.JobTimeout, log),
		loc:       loc,
		now:       time.Now,
		log:       log,
	}
}

// Pool exposes the worker pool, mainly to observe results.
func (s *Scheduler) Pool() *WorkerPool {
	return s.pool
}

// Run starts the workers and the cron loop and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("month closing scheduler is disabled, not starting")
		return nil
	}

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.CloseOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid closing schedule %q: %w", s.cfg.Schedule, err)
	}

	s.pool.Start(ctx)
	c.Start()
	s.log.WithField("schedule", s.cfg.Schedule).Info("month closing scheduler started")

	<-ctx.Done()
	s.log.Info("month closing scheduler shutting down")
	<-c.Stop().Done()
	return nil
}

// CloseOnce dispatches the closing of the previous month for every active
// company and returns the number of jobs dispatched.
func (s *Scheduler) CloseOnce(ctx context.Context) int {
	target := period.Of(s.now(), s.loc).Previous()
	log := s.log.WithField("period", target.String())

	ids, err := s.companies.ActiveCompanyIDs(ctx)
	if err != nil {
		log.WithError(err).Error("failed to list companies for closing")
		return 0
	}

	dispatched := 0
	for _, id := range ids {
		job := Job{CompanyID: id, Period: target, ClosedBy: s.cfg.ClosedBy}
		if err := s.pool.Dispatch(ctx, job); err != nil {
			log.WithError(err).Warn("closing cycle interrupted")
			break
		}
		dispatched++
	}
	log.WithField("companies", dispatched).Info("closing cycle dispatched")
	return dispatched
}
