package stock

import (
	"time"

	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// DepotRole selects which side of a transfer relationship the caller is
// interested in when filtering lost stock by depot.
type DepotRole string

const (
	// RoleSource filters on the depot that shipped the stock.
	RoleSource DepotRole = "source"
	// RoleDestination filters on the depot expected to receive it.
	RoleDestination DepotRole = "destination"
)

// LostStockFilter restricts reconciliation to a date range and optionally
// to one depot, matched on the side selected by Role.
type LostStockFilter struct {
	From time.Time // zero = unbounded
	To   time.Time // zero = unbounded

	DepotID id.ID // nil = all depots
	Role    DepotRole
}

func (f LostStockFilter) matches(out Movement) bool {
	if !f.From.IsZero() && out.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && out.Date.After(f.To) {
		return false
	}
	if !id.IsNil(f.DepotID) {
		switch f.Role {
		case RoleDestination:
			return out.EntityID == f.DepotID
		default:
			return out.DepotID == f.DepotID
		}
	}
	return true
}

// LostStockRow is one outbound transfer whose received quantity does not
// match what was sent.
type LostStockRow struct {
	DocumentID id.ID `json:"documentId"`
	LotID      id.ID `json:"lotId"`

	SourceDepotID      id.ID `json:"sourceDepotId"`
	DestinationDepotID id.ID `json:"destinationDepotId"`

	Date     time.Time   `json:"date"`
	UnitCost types.Money `json:"unitCost"`

	QuantitySent     int `json:"quantitySent"`
	QuantityReceived int `json:"quantityReceived"`
	// Difference is sent minus received; positive means stock vanished in
	// transit, negative means more arrived than was shipped.
	Difference int `json:"difference"`

	// LostValue is difference x unit cost.
	LostValue types.Money `json:"lostValue"`
}

// ReconcileLostStock pairs outbound inter-depot transfers with their
// inbound receipts sharing the same document and lot, and surfaces every
// pair whose quantities disagree.
//
// An outbound transfer with no matching receipt counts as fully lost.
// This deliberately conflates in-transit with genuinely lost stock: the
// movement schema carries no transfer-completion status to gate on, so a
// shipment still on the road shows up here until its receipt is recorded.
func ReconcileLostStock(outbound, inbound []Movement, filter LostStockFilter) []LostStockRow {
	type pairKey struct {
		document id.ID
		lot      id.ID
	}

	received := make(map[pairKey]int, len(inbound))
	for _, in := range inbound {
		if in.FluxID != FluxFromOtherDepot {
			continue
		}
		received[pairKey{in.DocumentID, in.LotID}] += in.Quantity
	}

	var rows []LostStockRow
	for _, out := range outbound {
		if out.FluxID != FluxToOtherDepot {
			continue
		}
		if !filter.matches(out) {
			continue
		}

		// Missing receipt defaults to zero received, not an error: the
		// shipment may simply be in transit.
		got := received[pairKey{out.DocumentID, out.LotID}]
		diff := out.Quantity - got
		if diff == 0 {
			continue
		}

		rows = append(rows, LostStockRow{
			DocumentID:         out.DocumentID,
			LotID:              out.LotID,
			SourceDepotID:      out.DepotID,
			DestinationDepotID: out.EntityID,
			Date:               out.Date,
			UnitCost:           out.UnitCost,
			QuantitySent:       out.Quantity,
			QuantityReceived:   got,
			Difference:         diff,
			LostValue:          out.UnitCost.Mul(types.NewMoneyFromInt(int64(diff))),
		})
	}

	return rows
}
