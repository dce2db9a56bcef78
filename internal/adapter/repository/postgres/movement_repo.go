package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/infrastructure/postgres/generated"
	"github.com/casacambio/cashledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository over the
// append-only movements table.
type MovementRepository struct {
	db generated.DBTX
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return newMovementRepository(pool)
}

func newMovementRepository(db generated.DBTX) *MovementRepository {
	return &MovementRepository{db: db}
}

// Append inserts a movement within a transaction.
func (r *MovementRepository) Append(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	params := generated.InsertMovementParams{
		ID:            movement.ID,
		AccountID:     movement.AccountID,
		CurrencyID:    movement.CurrencyID,
		Sequence:      movement.Sequence,
		Kind:          string(movement.Kind),
		Channel:       string(movement.Channel),
		Amount:        decimalToNumeric(movement.Amount),
		BalanceBefore: decimalToNumeric(movement.BalanceBefore),
		BalanceAfter:  decimalToNumeric(movement.BalanceAfter),
		Actor:         movement.Actor,
		Description:   movement.Description,
		CreatedAt:     timeToPgTimestamptz(movement.Timestamp),
	}

	if ref := movement.Reference; ref != nil {
		params.ReferenceKind = textOrNull(ref.Kind)
		params.ReferenceID = textOrNull(ref.ID)
	}

	err := queriesFor(r.db, tx).InsertMovement(ctx, params)
	if err != nil && movement.Kind == domain.KindTransferReversal && movement.Reference != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: transfer %s is already reversed", domain.ErrTransferNotInFlight, movement.Reference.ID)
	}

	return err
}

// List returns the pair's movements ordered by sequence.
func (r *MovementRepository) List(ctx context.Context, tx usecase.Transaction, accountID, currencyID string, filter usecase.MovementFilter) ([]*domain.Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = usecase.ReplayPageSize
	}

	rows, err := queriesFor(r.db, tx).ListMovements(ctx, generated.ListMovementsParams{
		AccountID:  accountID,
		CurrencyID: currencyID,
		Sequence:   filter.AfterSequence,
		Limit:      int32(limit),
		FromTime:   optionalTimestamptz(filter.From),
		ToTime:     optionalTimestamptz(filter.To),
	})
	if err != nil {
		return nil, err
	}

	return rowsToMovements(rows), nil
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	row, err := generated.New(r.db).GetMovementByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}

		return nil, err
	}

	return rowToMovement(row), nil
}

// ListByReference returns every movement tagged with ref, across pairs. A nil
// tx reads outside any transaction.
func (r *MovementRepository) ListByReference(ctx context.Context, tx usecase.Transaction, ref domain.Reference) ([]*domain.Movement, error) {
	rows, err := queriesFor(r.db, tx).ListMovementsByReference(ctx, generated.ListMovementsByReferenceParams{
		ReferenceKind: textOrNull(ref.Kind),
		ReferenceID:   textOrNull(ref.ID),
	})
	if err != nil {
		return nil, err
	}

	return rowsToMovements(rows), nil
}

func rowsToMovements(rows []generated.Movement) []*domain.Movement {
	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, rowToMovement(row))
	}

	return movements
}

func rowToMovement(row generated.Movement) *domain.Movement {
	m := &domain.Movement{
		ID:            row.ID,
		AccountID:     row.AccountID,
		CurrencyID:    row.CurrencyID,
		Sequence:      row.Sequence,
		Kind:          domain.MovementKind(row.Kind),
		Channel:       domain.Channel(row.Channel),
		Amount:        numericToDecimal(row.Amount),
		BalanceBefore: numericToDecimal(row.BalanceBefore),
		BalanceAfter:  numericToDecimal(row.BalanceAfter),
		Actor:         row.Actor,
		Description:   row.Description,
		Timestamp:     row.CreatedAt.Time,
	}

	if row.ReferenceKind.Valid {
		m.Reference = &domain.Reference{Kind: row.ReferenceKind.String, ID: row.ReferenceID.String}
	}

	return m
}
