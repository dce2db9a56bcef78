package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
)

// Read methods that accept a Transaction run inside it when tx is non-nil and
// against the connection pool otherwise.

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// List returns accounts ordered by ID, starting after afterID.
	List(ctx context.Context, afterID string, limit int) ([]*domain.Account, error)
}

// CurrencyRepository defines data access for currencies.
type CurrencyRepository interface {
	Create(ctx context.Context, currency *domain.Currency) error
	GetByID(ctx context.Context, id string) (*domain.Currency, error)
	List(ctx context.Context) ([]*domain.Currency, error)
}

// SnapshotRepository defines data access for balance snapshots.
type SnapshotRepository interface {
	// LockOrCreate makes sure the pair's snapshot exists, creating it with a zero
	// quantity if needed, and locks it until tx ends.
	LockOrCreate(ctx context.Context, tx Transaction, accountID, currencyID string, now time.Time) (*domain.Snapshot, error)
	// GetForUpdate locks an existing snapshot; ErrSnapshotNotFound if absent.
	GetForUpdate(ctx context.Context, tx Transaction, accountID, currencyID string) (*domain.Snapshot, error)
	Get(ctx context.Context, tx Transaction, accountID, currencyID string) (*domain.Snapshot, error)
	Update(ctx context.Context, tx Transaction, snapshot *domain.Snapshot) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Snapshot, error)
}

// MovementFilter narrows a movement listing. Results are ordered by sequence.
type MovementFilter struct {
	From          *time.Time
	To            *time.Time
	AfterSequence int64
	Limit         int
}

// MovementRepository is the append-only movement log.
type MovementRepository interface {
	Append(ctx context.Context, tx Transaction, movement *domain.Movement) error
	List(ctx context.Context, tx Transaction, accountID, currencyID string, filter MovementFilter) ([]*domain.Movement, error)
	GetByID(ctx context.Context, id string) (*domain.Movement, error)
	ListByReference(ctx context.Context, tx Transaction, ref domain.Reference) ([]*domain.Movement, error)
}

// OpeningBalanceRepository defines data access for opening balance anchors.
type OpeningBalanceRepository interface {
	Create(ctx context.Context, tx Transaction, opening *domain.OpeningBalance) error
	// GetActive returns the active anchor or ErrOpeningBalanceNotFound.
	GetActive(ctx context.Context, tx Transaction, accountID, currencyID string) (*domain.OpeningBalance, error)
	Supersede(ctx context.Context, tx Transaction, id, supersededBy string, at time.Time) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	// Begin starts a read-write transaction whose lock waits are bounded.
	Begin(ctx context.Context) (Transaction, error)
	// BeginReadOnly starts a read-only transaction over a consistent snapshot.
	BeginReadOnly(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation that failed with a transient concurrency error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose operation failed so it can be retried.
	Release(ctx context.Context, key string) error
}

// Metrics receives engine observations.
type Metrics interface {
	MovementPosted(kind domain.MovementKind, amount decimal.Decimal, duration time.Duration)
	PostingFailed(reason string)
	LockTimeout()
	ReconciliationCompleted(result *domain.ReconciliationResult)
	ChainChecked(report *domain.ChainReport)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) MovementPosted(domain.MovementKind, decimal.Decimal, time.Duration) {}
func (NopMetrics) PostingFailed(string)                                               {}
func (NopMetrics) LockTimeout()                                                       {}
func (NopMetrics) ReconciliationCompleted(*domain.ReconciliationResult)               {}
func (NopMetrics) ChainChecked(*domain.ChainReport)                                   {}
