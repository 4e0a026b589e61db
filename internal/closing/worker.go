package closing

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"storatrack-backend/internal/costing"
	"storatrack-backend/internal/model"
	"storatrack-backend/internal/period"
)

// Closer freezes the monthly report of one company.
type Closer interface {
	CloseMonth(ctx context.Context, companyID int64, p period.Period, closedBy string) (model.MonthlyReport, error)
}

// Job asks for one company's month to be closed.
type Job struct {
	CompanyID int64
	Period    period.Period
	ClosedBy  string
}

// Result reports the outcome of a Job.
type Result struct {
	Job    Job
	Report model.MonthlyReport
	Err    error
}

// WorkerPool closes months for many companies with a fixed number of workers.
type WorkerPool struct {
	size    int
	jobs    chan Job
	closer  Closer
	timeout time.Duration
	log     logrus.FieldLogger
	onDone  func(Result)
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, closer Closer, timeout time.Duration, log logrus.FieldLogger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size),
		closer:  closer,
		timeout: timeout,
		log:     log,
		onDone:  func(Result) {},
	}
}

// OnDone registers a callback invoked after every job.
func (wp *WorkerPool) OnDone(fn func(Result)) {
	wp.onDone = fn
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.WithField("worker", id)
	log.Debug("closing worker started")
	for {
		select {
		case job := <-wp.jobs:
			wp.onDone(wp.process(ctx, log, job))
		case <-ctx.Done():
			log.Debug("closing worker shutting down")
			return
		}
	}
}

func (wp *WorkerPool) process(ctx context.Context, log logrus.FieldLogger, job Job) Result {
	jobCtx := ctx
	if wp.timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, wp.timeout)
		defer cancel()
	}

	fields := logrus.Fields{"company_id": job.CompanyID, "period": job.Period.String()}
	report, err := wp.closer.CloseMonth(jobCtx, job.CompanyID, job.Period, job.ClosedBy)
	switch {
	case err == nil:
		log.WithFields(fields).WithField("run_id", report.RunID).Info("scheduled closing complete")
	case errors.Is(err, costing.ErrAlreadyClosed):
		log.WithFields(fields).Info("period already closed")
	default:
		log.WithFields(fields).WithError(err).Error("scheduled closing failed")
	}
	return Result{Job: job, Report: report, Err: err}
}

// Dispatch sends a job to the worker pool. It blocks while all workers are busy.
func (wp *WorkerPool) Dispatch(ctx context.Context, job Job) error {
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
