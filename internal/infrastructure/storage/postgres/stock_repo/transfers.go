package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/domain/stock"
)

// TransferRepo implements stock.TransferSource.
type TransferRepo struct {
	db      pgxscan.Querier
	builder squirrel.StatementBuilderType
}

// NewTransferRepo creates a new transfer repository.
func NewTransferRepo(db pgxscan.Querier) *TransferRepo {
	return &TransferRepo{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// TransferMovements returns the outbound inter-depot shipments matching
// the filter plus every inbound receipt sharing their documents. Receipts
// are fetched without a date bound: a shipment near the end of the range
// may be received after it.
func (r *TransferRepo) TransferMovements(ctx context.Context, filter stock.LostStockFilter) (outbound, inbound []stock.Movement, err error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable + " m").
		Where(squirrel.Eq{"m.flux_id": stock.FluxToOtherDepot}).
		OrderBy("m.date")

	if !filter.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"m.date": filter.From})
	}
	if !filter.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"m.date": filter.To})
	}
	if !id.IsNil(filter.DepotID) {
		if filter.Role == stock.RoleDestination {
			q = q.Where(squirrel.Eq{"m.entity_uuid": filter.DepotID})
		} else {
			q = q.Where(squirrel.Eq{"m.depot_uuid": filter.DepotID})
		}
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build outbound query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.db, &outbound, sql, args...); err != nil {
		return nil, nil, apperror.NewDatabase(fmt.Errorf("select outbound transfers: %w", err))
	}
	if len(outbound) == 0 {
		return nil, nil, nil
	}

	documents := make([]id.ID, 0, len(outbound))
	for _, m := range outbound {
		documents = append(documents, m.DocumentID)
	}

	q = r.builder.Select(movementColumns...).
		From(movementsTable + " m").
		Where(squirrel.Eq{
			"m.flux_id":       stock.FluxFromOtherDepot,
			"m.document_uuid": documents,
		})

	sql, args, err = q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build inbound query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.db, &inbound, sql, args...); err != nil {
		return nil, nil, apperror.NewDatabase(fmt.Errorf("select inbound transfers: %w", err))
	}

	return outbound, inbound, nil
}
