package stock

import (
	"context"
	"time"

	"medistock/internal/core/id"
)

// LotSource fetches the current lot rows of a depot, each carrying its
// inventory-group tracking flags and per-item threshold parameters.
type LotSource interface {
	DepotLots(ctx context.Context, depotID id.ID, asOf time.Time) ([]Lot, error)
}

// MovementSource fetches the movement ledger for one (depot, inventory)
// pair. Movements come back in chronological order; the opening balance is
// the weighted-average state just before the requested period.
type MovementSource interface {
	OpeningBalance(ctx context.Context, pair DepotInventory, before time.Time) (Balance, error)
	Movements(ctx context.Context, pair DepotInventory, from, to time.Time) ([]Movement, error)
}

// TransferSource fetches both sides of inter-depot transfers for the
// reconciler: outbound shipment movements and inbound receipt movements.
type TransferSource interface {
	TransferMovements(ctx context.Context, filter LostStockFilter) (outbound, inbound []Movement, err error)
}

// SettingsSource loads the enterprise stock settings, once per request.
type SettingsSource interface {
	StockSettings(ctx context.Context) (Settings, error)
}
