package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
)

// Job is a unit of scheduled background work.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on cron schedules. Overlapping runs of the same job
// are skipped rather than queued.
type Scheduler struct {
	cron   *cron.Cron
	logger *common.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(logger *common.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.WithComponent("scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers job under a standard five-field cron spec or a
// descriptor such as "@hourly" or "@every 30m".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		start := time.Now()
		s.logger.Debug().Str("job", job.Name()).Msg("Running job")

		if err := job.Run(s.ctx); err != nil {
			s.logger.Error().Err(err).Str("job", job.Name()).Msg("Job failed")
			return
		}
		s.logger.Debug().Str("job", job.Name()).Dur("elapsed", time.Since(start)).Msg("Job completed")
	}))

	if _, err := s.cron.AddJob(schedule, wrapped); err != nil {
		return err
	}

	s.logger.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("Job registered")
	return nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// RevalueJob refreshes the last amount of every portfolio holding positions.
type RevalueJob struct {
	valuation interfaces.ValuationService
	period    string
	logger    *common.Logger
}

// NewRevalueJob creates a revalue job over period (e.g. "5d").
func NewRevalueJob(valuation interfaces.ValuationService, period string, logger *common.Logger) *RevalueJob {
	return &RevalueJob{valuation: valuation, period: period, logger: logger}
}

func (j *RevalueJob) Name() string { return "revalue_portfolios" }

func (j *RevalueJob) Run(ctx context.Context) error {
	start := time.Now()
	n, err := j.valuation.RevalueAll(ctx, j.period)
	if err != nil {
		return err
	}
	j.logger.Info().
		Int("portfolios", n).
		Str("period", j.period).
		Dur("elapsed", time.Since(start)).
		Msg("Revalue: complete")
	return nil
}
