package stock

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/types"
	"medistock/pkg/logger"
)

var tracer = otel.Tracer("medistock/stock")

// Service orchestrates the read-side analytics: it fetches rows through
// the collaborator interfaces and runs the pure calculators over them.
// It holds no shared mutable state and is safe under arbitrary concurrency.
type Service struct {
	lots      LotSource
	movements MovementSource
	transfers TransferSource
	settings  SettingsSource
	cmm       *CMMCalculator
}

// NewService creates a new stock analytics service.
func NewService(
	lots LotSource,
	movements MovementSource,
	transfers TransferSource,
	settings SettingsSource,
	consumption ConsumptionSource,
) *Service {
	return &Service{
		lots:      lots,
		movements: movements,
		transfers: transfers,
		settings:  settings,
		cmm:       NewCMMCalculator(consumption),
	}
}

// DepotSnapshot computes the full indicator snapshot for one depot as of a
// date: per-pair consumption and thresholds, then the per-lot depletion
// simulation. Everything is recomputed from committed rows at query time;
// the result is a best-effort point-in-time view.
func (s *Service) DepotSnapshot(ctx context.Context, depotID id.ID, asOf time.Time) (*DepotSnapshot, error) {
	ctx, span := tracer.Start(ctx, "stock.DepotSnapshot",
		trace.WithAttributes(attribute.String("depot_id", depotID.String())))
	defer span.End()

	settings, err := s.settings.StockSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stock settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	lots, err := s.lots.DepotLots(ctx, depotID, asOf)
	if err != nil {
		return nil, fmt.Errorf("load depot lots: %w", err)
	}

	// Group lots by pair, preserving first-seen order.
	byPair := make(map[string][]Lot, len(lots))
	var pairs []DepotInventory
	for _, l := range lots {
		if id.IsNil(l.DepotID) {
			return nil, apperror.NewDataIntegrity("lot without depot").
				WithDetail("lot_uuid", l.LotID)
		}
		pair := DepotInventory{DepotID: l.DepotID, InventoryID: l.InventoryID}
		if _, ok := byPair[pair.Key()]; !ok {
			pairs = append(pairs, pair)
		}
		byPair[pair.Key()] = append(byPair[pair.Key()], l)
	}

	index, err := s.cmm.Compute(ctx, pairs, asOf, settings)
	if err != nil {
		return nil, fmt.Errorf("compute consumption: %w", err)
	}

	snapshot := &DepotSnapshot{
		DepotID:     depotID,
		AsOf:        asOf,
		Inventories: make([]InventoryIndicators, 0, len(pairs)),
		Lots:        make([]LotIndicators, 0, len(lots)),
	}

	for _, pair := range pairs {
		pairLots := byPair[pair.Key()]
		cmm := index.Lookup(pair).Selected

		indicators, err := ComputeInventoryIndicators(PairStockFromLots(pairLots, asOf), cmm, settings)
		if err != nil {
			return nil, err
		}

		snapshot.Inventories = append(snapshot.Inventories, indicators)
		snapshot.Lots = append(snapshot.Lots,
			ComputeLotIndicators(pairLots, cmm, indicators.Status, asOf)...)
	}

	logger.Info(ctx, "computed depot snapshot",
		"depot_id", depotID,
		"pairs", len(pairs),
		"lots", len(lots),
	)

	return snapshot, nil
}

// StockSheet builds the weighted-average-cost ledger for one
// (depot, inventory) pair over a period. A zero exchangeRate means 1.
func (s *Service) StockSheet(ctx context.Context, pair DepotInventory, from, to time.Time, exchangeRate types.Money) (*Ledger, error) {
	ctx, span := tracer.Start(ctx, "stock.StockSheet",
		trace.WithAttributes(
			attribute.String("depot_id", pair.DepotID.String()),
			attribute.String("inventory_id", pair.InventoryID.String()),
		))
	defer span.End()

	// No opening balance found is a defined empty state, handled by the
	// repository returning the zero Balance.
	opening, err := s.movements.OpeningBalance(ctx, pair, from)
	if err != nil {
		return nil, fmt.Errorf("load opening balance: %w", err)
	}

	movements, err := s.movements.Movements(ctx, pair, from, to)
	if err != nil {
		return nil, fmt.Errorf("load movements: %w", err)
	}
	for _, m := range movements {
		if id.IsNil(m.DepotID) {
			return nil, apperror.NewDataIntegrity("movement without depot").
				WithDetail("document_uuid", m.DocumentID)
		}
	}

	ledger := BuildWACLedger(opening, movements, exchangeRate)

	logger.Debug(ctx, "built stock sheet",
		"depot_id", pair.DepotID,
		"inventory_id", pair.InventoryID,
		"movements", len(movements),
	)

	return &ledger, nil
}

// LostStock reconciles inter-depot transfers and returns the rows whose
// sent and received quantities disagree.
func (s *Service) LostStock(ctx context.Context, filter LostStockFilter) ([]LostStockRow, error) {
	ctx, span := tracer.Start(ctx, "stock.LostStock")
	defer span.End()

	outbound, inbound, err := s.transfers.TransferMovements(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load transfer movements: %w", err)
	}

	rows := ReconcileLostStock(outbound, inbound, filter)

	logger.Debug(ctx, "reconciled lost stock",
		"outbound", len(outbound),
		"discrepancies", len(rows),
	)

	return rows, nil
}
