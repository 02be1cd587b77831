package stock_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/core/types"
	"medistock/internal/domain/stock"
)

const movementsTable = "stock_movement"

var movementColumns = []string{
	"m.lot_uuid", "m.depot_uuid", "m.document_uuid", "m.entity_uuid",
	"m.flux_id", "m.is_exit", "m.date", "m.quantity", "m.unit_cost",
}

// MovementRepo implements stock.MovementSource.
type MovementRepo struct {
	db      pgxscan.Querier
	builder squirrel.StatementBuilderType
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(db pgxscan.Querier) *MovementRepo {
	return &MovementRepo{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Movements returns the chronological movement ledger for one
// (depot, inventory) pair within [from, to].
func (r *MovementRepo) Movements(ctx context.Context, pair stock.DepotInventory, from, to time.Time) ([]stock.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable + " m").
		Join("lot l ON l.uuid = m.lot_uuid").
		Where(squirrel.Eq{
			"m.depot_uuid":     pair.DepotID,
			"l.inventory_uuid": pair.InventoryID,
		}).
		OrderBy("m.date", "m.created_at")

	if !from.IsZero() {
		q = q.Where(squirrel.GtOrEq{"m.date": from})
	}
	if !to.IsZero() {
		q = q.Where(squirrel.LtOrEq{"m.date": to})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.db, &movements, sql, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("select movements: %w", err))
	}

	return movements, nil
}

// OpeningBalance derives the weighted-average state of a pair just before
// the given date by replaying its prior movements from an empty balance.
// No prior movements means a (0, 0) opening, a defined empty state.
func (r *MovementRepo) OpeningBalance(ctx context.Context, pair stock.DepotInventory, before time.Time) (stock.Balance, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable + " m").
		Join("lot l ON l.uuid = m.lot_uuid").
		Where(squirrel.Eq{
			"m.depot_uuid":     pair.DepotID,
			"l.inventory_uuid": pair.InventoryID,
		}).
		Where(squirrel.Lt{"m.date": before}).
		OrderBy("m.date", "m.created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return stock.Balance{}, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.db, &movements, sql, args...); err != nil {
		return stock.Balance{}, apperror.NewDatabase(fmt.Errorf("select prior movements: %w", err))
	}

	ledger := stock.BuildWACLedger(stock.Balance{}, movements, types.Money{})
	return ledger.Closing, nil
}
