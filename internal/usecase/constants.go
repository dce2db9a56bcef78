package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// BalanceCacheTTL bounds how stale a cached balance read may be
	BalanceCacheTTL = 30 * time.Second

	// ReplayPageSize is how many movements are fetched per page while walking a log
	ReplayPageSize = 500

	// SweepPageSize is how many accounts are reconciled per page during a sweep
	SweepPageSize = 100

	idempotencyPending = "processing"
)
