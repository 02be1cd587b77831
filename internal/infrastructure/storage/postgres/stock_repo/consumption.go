package stock_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/domain/stock"
)

// Algorithm keys returned by the aggregation routine. The enterprise
// settings select one of these as the pair's CMM.
const (
	AlgoDefault       = "algo_def"
	AlgoMSH           = "algo_msh"
	AlgoConsumption   = "algo1"
	AlgoConsumedStock = "algo2"
	AlgoDistributed   = "algo3"
)

// consumptionRow mirrors the record returned by the stored routine.
type consumptionRow struct {
	AlgoDefault       float64 `db:"algo_def"`
	AlgoMSH           float64 `db:"algo_msh"`
	AlgoConsumption   float64 `db:"algo1"`
	AlgoConsumedStock float64 `db:"algo2"`
	AlgoDistributed   float64 `db:"algo3"`
}

// ConsumptionRepo implements stock.ConsumptionSource by invoking the
// stock_average_consumption stored routine per (depot, inventory) pair.
type ConsumptionRepo struct {
	db pgxscan.Querier
}

// NewConsumptionRepo creates a new consumption repository.
func NewConsumptionRepo(db pgxscan.Querier) *ConsumptionRepo {
	return &ConsumptionRepo{db: db}
}

// AverageConsumption returns the algorithm-keyed monthly consumption
// estimates for one pair as of a date, averaged over window months.
// A pair the routine has never seen yields zero estimates.
func (r *ConsumptionRepo) AverageConsumption(ctx context.Context, pair stock.DepotInventory, asOf time.Time, window int) (stock.Consumption, error) {
	query := `
		SELECT algo_def, algo_msh, algo1, algo2, algo3
		FROM stock_average_consumption($1, $2, $3, $4)
	`

	var row consumptionRow
	if err := pgxscan.Get(ctx, r.db, &row, query, pair.DepotID, pair.InventoryID, asOf, window); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Consumption{Algorithms: map[string]float64{}}, nil
		}
		return stock.Consumption{}, apperror.NewDatabase(fmt.Errorf("average consumption for %s: %w", pair.Key(), err))
	}

	return stock.Consumption{
		Algorithms: map[string]float64{
			AlgoDefault:       row.AlgoDefault,
			AlgoMSH:           row.AlgoMSH,
			AlgoConsumption:   row.AlgoConsumption,
			AlgoConsumedStock: row.AlgoConsumedStock,
			AlgoDistributed:   row.AlgoDistributed,
		},
	}, nil
}
