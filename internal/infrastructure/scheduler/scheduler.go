package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/casacambio/cashledger/internal/domain"
)

// Sweeper reconciles every balance in the system.
// *usecase.ReconciliationUseCase satisfies it.
type Sweeper interface {
	ReconcileSystem(ctx context.Context, actor string, dryRun bool) (*domain.ReconciliationBatch, error)
}

// Config for Scheduler.
type Config struct {
	Schedule string // standard five-field cron spec
	Actor    string
	DryRun   bool
	Timeout  time.Duration // per-run bound; zero means none
}

// Scheduler runs the reconciliation sweep on a cron schedule. Runs never
// overlap: a tick that fires while a sweep is in progress is skipped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  zerolog.Logger
	config  Config

	mu      sync.Mutex
	running bool
	baseCtx context.Context
}

// New creates a new scheduler instance.
func New(sweeper Sweeper, logger zerolog.Logger, cfg Config) *Scheduler {
	cronLogger := cronLogger{logger: logger}
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		logger:  logger,
		config:  cfg,
		baseCtx: context.Background(),
	}
}

// Start registers the sweep and starts the cron scheduler. Jobs run with
// contexts derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.baseCtx = ctx

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runJob); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.config.Schedule, err)
	}

	s.logger.Info().Str("schedule", s.config.Schedule).Bool("dry_run", s.config.DryRun).Msg("scheduled reconciliation sweep")
	s.cron.Start()

	return nil
}

// Stop stops the scheduler; the returned context is done once a running sweep finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runJob() {
	if _, err := s.RunOnce(s.baseCtx); err != nil {
		s.logger.Error().Err(err).Msg("reconciliation sweep failed")
	}
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce(ctx context.Context) (*domain.ReconciliationBatch, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSweepRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	batch, err := s.sweeper.ReconcileSystem(ctx, s.config.Actor, s.config.DryRun)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("checked", len(batch.Results)).
		Int("corrected", batch.Corrected).
		Int("drifted", batch.Drifted).
		Int("failed", len(batch.Failures)).
		Dur("took", time.Since(start)).
		Msg("reconciliation sweep finished")

	return batch, nil
}

// ErrSweepRunning is returned by RunOnce while another sweep is in progress.
var ErrSweepRunning = errors.New("reconciliation sweep already running")

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
