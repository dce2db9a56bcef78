package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacambio/cashledger/internal/domain"
)

type stubSweeper struct {
	calls   atomic.Int32
	actor   string
	dryRun  bool
	block   chan struct{}
	err     error
	results int
}

func (s *stubSweeper) ReconcileSystem(ctx context.Context, actor string, dryRun bool) (*domain.ReconciliationBatch, error) {
	s.calls.Add(1)
	s.actor, s.dryRun = actor, dryRun

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.err != nil {
		return nil, s.err
	}

	return &domain.ReconciliationBatch{Results: make([]*domain.ReconciliationResult, s.results)}, nil
}

func TestRunOncePassesActorAndDryRun(t *testing.T) {
	sweeper := &stubSweeper{results: 3}
	s := New(sweeper, zerolog.Nop(), Config{Schedule: "@every 1h", Actor: "system:sweep", DryRun: true})

	batch, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Results, 3)
	assert.Equal(t, "system:sweep", sweeper.actor)
	assert.True(t, sweeper.dryRun)
}

func TestRunOnceRejectsOverlap(t *testing.T) {
	sweeper := &stubSweeper{block: make(chan struct{})}
	s := New(sweeper, zerolog.Nop(), Config{Schedule: "@every 1h", Actor: "a"})

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return sweeper.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrSweepRunning)

	close(sweeper.block)
	require.NoError(t, <-done)
}

func TestRunOnceTimeout(t *testing.T) {
	sweeper := &stubSweeper{block: make(chan struct{})}
	s := New(sweeper, zerolog.Nop(), Config{Schedule: "@every 1h", Actor: "a", Timeout: 10 * time.Millisecond})

	_, err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunOncePropagatesError(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("db down")}
	s := New(sweeper, zerolog.Nop(), Config{Schedule: "@every 1h", Actor: "a"})

	_, err := s.RunOnce(context.Background())
	require.EqualError(t, err, "db down")
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := New(&stubSweeper{}, zerolog.Nop(), Config{Schedule: "not a schedule"})

	require.Error(t, s.Start(context.Background()))
}

func TestStartRunsOnSchedule(t *testing.T) {
	sweeper := &stubSweeper{}
	s := New(sweeper, zerolog.Nop(), Config{Schedule: "@every 1s", Actor: "a"})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
