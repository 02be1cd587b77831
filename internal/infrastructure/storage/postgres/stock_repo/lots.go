// Package stock_repo provides PostgreSQL row fetchers for the stock
// valuation and indicator engine. All repositories are read-only.
package stock_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/domain/stock"
)

// LotRepo implements stock.LotSource.
type LotRepo struct {
	db pgxscan.Querier
}

// NewLotRepo creates a new lot repository.
func NewLotRepo(db pgxscan.Querier) *LotRepo {
	return &LotRepo{db: db}
}

// DepotLots returns the current lots of a depot as of a date. Quantities
// are aggregated from the movement ledger; tracking flags come from the
// inventory group, threshold parameters from the item and the depot.
func (r *LotRepo) DepotLots(ctx context.Context, depotID id.ID, asOf time.Time) ([]stock.Lot, error) {
	query := `
		WITH lot_quantity AS (
			SELECT
				m.lot_uuid,
				SUM(CASE WHEN m.is_exit THEN -m.quantity ELSE m.quantity END) AS quantity
			FROM stock_movement m
			WHERE m.depot_uuid = $1 AND m.date <= $2
			GROUP BY m.lot_uuid
		)
		SELECT
			l.uuid AS lot_uuid,
			l.inventory_uuid,
			$1::uuid AS depot_uuid,
			l.label,
			lq.quantity,
			l.unit_cost,
			l.expiration_date,
			l.package_size,
			g.tracking_expiration,
			g.tracking_consumption,
			i.delay,
			i.min_months_security_stock,
			i.purchase_interval,
			d.default_purchase_interval
		FROM lot_quantity lq
		JOIN lot l ON l.uuid = lq.lot_uuid
		JOIN inventory i ON i.uuid = l.inventory_uuid
		JOIN inventory_group g ON g.uuid = i.group_uuid
		JOIN depot d ON d.uuid = $1
		ORDER BY l.inventory_uuid, l.expiration_date, l.uuid
	`

	var lots []stock.Lot
	if err := pgxscan.Select(ctx, r.db, &lots, query, depotID, asOf); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("select depot lots: %w", err))
	}

	return lots, nil
}
