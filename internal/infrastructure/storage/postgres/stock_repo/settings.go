package stock_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"medistock/internal/core/apperror"
	"medistock/internal/domain/stock"
)

// SettingsRepo implements stock.SettingsSource.
type SettingsRepo struct {
	db pgxscan.Querier
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(db pgxscan.Querier) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// StockSettings loads the enterprise stock settings. An absent settings
// row is a configuration error, never silently defaulted.
func (r *SettingsRepo) StockSettings(ctx context.Context) (stock.Settings, error) {
	query := `
		SELECT
			month_average_consumption,
			average_consumption_algo,
			min_delay,
			default_purchase_interval,
			enable_expired_stock_out
		FROM stock_setting
		LIMIT 1
	`

	var settings stock.Settings
	if err := pgxscan.Get(ctx, r.db, &settings, query); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Settings{}, apperror.NewMissingSetting("stock_setting")
		}
		return stock.Settings{}, apperror.NewDatabase(fmt.Errorf("load stock settings: %w", err))
	}

	return settings, nil
}
