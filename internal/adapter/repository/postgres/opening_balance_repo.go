package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/infrastructure/postgres/generated"
	"github.com/casacambio/cashledger/internal/usecase"
)

// OpeningBalanceRepository implements usecase.OpeningBalanceRepository.
type OpeningBalanceRepository struct {
	db generated.DBTX
}

// NewOpeningBalanceRepository creates a new OpeningBalanceRepository.
func NewOpeningBalanceRepository(pool *pgxpool.Pool) *OpeningBalanceRepository {
	return newOpeningBalanceRepository(pool)
}

func newOpeningBalanceRepository(db generated.DBTX) *OpeningBalanceRepository {
	return &OpeningBalanceRepository{db: db}
}

// Create stores a new anchor. The partial unique index on active anchors
// rejects a second active row for the pair.
func (r *OpeningBalanceRepository) Create(ctx context.Context, tx usecase.Transaction, opening *domain.OpeningBalance) error {
	return queriesFor(r.db, tx).CreateOpeningBalance(ctx, generated.CreateOpeningBalanceParams{
		ID:                  opening.ID,
		AccountID:           opening.AccountID,
		CurrencyID:          opening.CurrencyID,
		Quantity:            decimalToNumeric(opening.Quantity),
		StartsAfterSequence: opening.StartsAfterSequence,
		Actor:               opening.Actor,
		Active:              opening.Active,
		CreatedAt:           timeToPgTimestamptz(opening.CreatedAt),
	})
}

// GetActive returns the pair's active anchor.
func (r *OpeningBalanceRepository) GetActive(ctx context.Context, tx usecase.Transaction, accountID, currencyID string) (*domain.OpeningBalance, error) {
	row, err := queriesFor(r.db, tx).GetActiveOpeningBalance(ctx, generated.GetActiveOpeningBalanceParams{
		AccountID:  accountID,
		CurrencyID: currencyID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOpeningBalanceNotFound
		}

		return nil, err
	}

	return rowToOpeningBalance(row), nil
}

// Supersede deactivates an anchor.
func (r *OpeningBalanceRepository) Supersede(ctx context.Context, tx usecase.Transaction, id, supersededBy string, at time.Time) error {
	return queriesFor(r.db, tx).SupersedeOpeningBalance(ctx, generated.SupersedeOpeningBalanceParams{
		ID:           id,
		SupersededBy: textOrNull(supersededBy),
		SupersededAt: timeToPgTimestamptz(at),
	})
}

func rowToOpeningBalance(row generated.OpeningBalance) *domain.OpeningBalance {
	o := &domain.OpeningBalance{
		ID:                  row.ID,
		AccountID:           row.AccountID,
		CurrencyID:          row.CurrencyID,
		Quantity:            numericToDecimal(row.Quantity),
		StartsAfterSequence: row.StartsAfterSequence,
		Actor:               row.Actor,
		Active:              row.Active,
		SupersededBy:        row.SupersededBy.String,
		CreatedAt:           row.CreatedAt.Time,
	}

	if row.SupersededAt.Valid {
		t := row.SupersededAt.Time
		o.SupersededAt = &t
	}

	return o
}
