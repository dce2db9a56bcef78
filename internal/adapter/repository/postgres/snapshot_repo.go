package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/infrastructure/postgres/generated"
	"github.com/casacambio/cashledger/internal/usecase"
)

// SnapshotRepository implements usecase.SnapshotRepository.
type SnapshotRepository struct {
	db generated.DBTX
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return newSnapshotRepository(pool)
}

func newSnapshotRepository(db generated.DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// LockOrCreate inserts a zero snapshot if the pair has none and then locks
// the row. Concurrent first postings race on the insert, not on the lock:
// ON CONFLICT DO NOTHING lets the loser fall through to SELECT FOR UPDATE.
func (r *SnapshotRepository) LockOrCreate(ctx context.Context, tx usecase.Transaction, accountID, currencyID string, now time.Time) (*domain.Snapshot, error) {
	queries := queriesFor(r.db, tx)

	err := queries.EnsureSnapshot(ctx, generated.EnsureSnapshotParams{
		AccountID:  accountID,
		CurrencyID: currencyID,
		UpdatedAt:  timeToPgTimestamptz(now),
	})
	if err != nil {
		return nil, mapLockError(err)
	}

	row, err := queries.GetSnapshotForUpdate(ctx, generated.GetSnapshotForUpdateParams{
		AccountID:  accountID,
		CurrencyID: currencyID,
	})
	if err != nil {
		return nil, mapLockError(err)
	}

	return rowToSnapshot(row), nil
}

// GetForUpdate locks an existing snapshot.
func (r *SnapshotRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID, currencyID string) (*domain.Snapshot, error) {
	row, err := queriesFor(r.db, tx).GetSnapshotForUpdate(ctx, generated.GetSnapshotForUpdateParams{
		AccountID:  accountID,
		CurrencyID: currencyID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}

		return nil, mapLockError(err)
	}

	return rowToSnapshot(row), nil
}

// Get reads a snapshot without locking it.
func (r *SnapshotRepository) Get(ctx context.Context, tx usecase.Transaction, accountID, currencyID string) (*domain.Snapshot, error) {
	row, err := queriesFor(r.db, tx).GetSnapshot(ctx, generated.GetSnapshotParams{
		AccountID:  accountID,
		CurrencyID: currencyID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}

		return nil, err
	}

	return rowToSnapshot(row), nil
}

// Update overwrites the snapshot row.
func (r *SnapshotRepository) Update(ctx context.Context, tx usecase.Transaction, snapshot *domain.Snapshot) error {
	params := generated.UpdateSnapshotParams{
		AccountID:    snapshot.AccountID,
		CurrencyID:   snapshot.CurrencyID,
		Quantity:     decimalToNumeric(snapshot.Quantity),
		LastSequence: snapshot.LastSequence,
		UpdatedAt:    timeToPgTimestamptz(snapshot.UpdatedAt),
	}

	if c := snapshot.Components; c != nil {
		params.CashBills = decimalToNumeric(c.CashBills)
		params.CashCoins = decimalToNumeric(c.CashCoins)
		params.Bank = decimalToNumeric(c.Bank)
	}

	affected, err := queriesFor(r.db, tx).UpdateSnapshot(ctx, params)
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrSnapshotNotFound
	}

	return nil
}

// ListByAccount lists the account's snapshots ordered by currency.
func (r *SnapshotRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Snapshot, error) {
	rows, err := generated.New(r.db).ListSnapshotsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*domain.Snapshot, 0, len(rows))
	for _, row := range rows {
		snapshots = append(snapshots, rowToSnapshot(row))
	}

	return snapshots, nil
}

func rowToSnapshot(row generated.BalanceSnapshot) *domain.Snapshot {
	snap := &domain.Snapshot{
		AccountID:    row.AccountID,
		CurrencyID:   row.CurrencyID,
		Quantity:     numericToDecimal(row.Quantity),
		LastSequence: row.LastSequence,
		UpdatedAt:    row.UpdatedAt.Time,
	}

	if row.CashBills.Valid || row.CashCoins.Valid || row.Bank.Valid {
		snap.Components = &domain.Components{
			CashBills: numericOrZero(row.CashBills),
			CashCoins: numericOrZero(row.CashCoins),
			Bank:      numericOrZero(row.Bank),
		}
	}

	return snap
}

func numericOrZero(n pgtype.Numeric) decimal.Decimal {
	return numericToDecimal(n)
}
