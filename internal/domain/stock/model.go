// Package stock implements the stock valuation and indicator engine:
// average monthly consumption, security/minimum/maximum thresholds,
// FIFO-by-expiration depletion simulation, weighted-average-cost ledgers
// and lost-stock reconciliation between paired depot transfers.
package stock

import (
	"time"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// FluxType is the enumerated reason/direction code for a stock movement.
// Values are stable and stored as-is in the movement ledger.
type FluxType int

const (
	FluxFromPurchase FluxType = iota + 1
	FluxFromOtherDepot
	FluxFromAdjustment
	FluxFromPatient
	FluxFromService
	FluxFromDonation
	FluxFromLoss
	FluxToOtherDepot
	FluxToPatient
	FluxToService
	FluxToAdjustment
	FluxToLoss
	FluxFromIntegration
	FluxInventoryReset
	FluxInventoryAdjustment
	FluxAggregateConsumption
)

var fluxNames = map[FluxType]string{
	FluxFromPurchase:         "from_purchase",
	FluxFromOtherDepot:       "from_other_depot",
	FluxFromAdjustment:       "from_adjustment",
	FluxFromPatient:          "from_patient",
	FluxFromService:          "from_service",
	FluxFromDonation:         "from_donation",
	FluxFromLoss:             "from_loss",
	FluxToOtherDepot:         "to_other_depot",
	FluxToPatient:            "to_patient",
	FluxToService:            "to_service",
	FluxToAdjustment:         "to_adjustment",
	FluxToLoss:               "to_loss",
	FluxFromIntegration:      "from_integration",
	FluxInventoryReset:       "inventory_reset",
	FluxInventoryAdjustment:  "inventory_adjustment",
	FluxAggregateConsumption: "aggregate_consumption",
}

func (f FluxType) String() string {
	if s, ok := fluxNames[f]; ok {
		return s
	}
	return "unknown"
}

// IsTransfer reports whether the flux is one side of an inter-depot transfer.
func (f FluxType) IsTransfer() bool {
	return f == FluxFromOtherDepot || f == FluxToOtherDepot
}

// Status classifies a (depot, inventory) pair against its thresholds.
// The six values form a strict partition; see ComputeInventoryIndicators
// for the boundary rules.
type Status string

const (
	StatusStockOut        Status = "stock_out"
	StatusUnusedStock     Status = "unused_stock"
	StatusSecurityReached Status = "security_reached"
	StatusMinimumReached  Status = "minimum_reached"
	StatusInStock         Status = "in_stock"
	StatusOverMaximum     Status = "over_maximum"
)

// DaysPerMonth converts a monthly consumption figure to a daily rate.
const DaysPerMonth = 30.5

// Settings holds the enterprise-level stock settings, loaded once per
// request. There are no defaults for the consumption algorithm or the
// averaging window: a missing value is a configuration error.
type Settings struct {
	// MonthAverageConsumption is the averaging window in months fed to the
	// consumption routine.
	MonthAverageConsumption int `db:"month_average_consumption"`

	// AverageConsumptionAlgo selects which algorithm estimate is used as
	// the pair's CMM.
	AverageConsumptionAlgo string `db:"average_consumption_algo"`

	// MinDelay floors every item-level lead time, in months.
	MinDelay float64 `db:"min_delay"`

	// DefaultPurchaseInterval is the enterprise-wide purchase interval in
	// months; depot and item values may override it upward.
	DefaultPurchaseInterval float64 `db:"default_purchase_interval"`

	// EnableExpiredStockOut excludes expired-but-unconsumed quantities
	// from the usable quantity when classifying a pair.
	EnableExpiredStockOut bool `db:"enable_expired_stock_out"`
}

// Validate fails loudly when a required consumption setting is absent.
func (s Settings) Validate() error {
	if s.AverageConsumptionAlgo == "" {
		return apperror.NewMissingSetting("average_consumption_algo")
	}
	if s.MonthAverageConsumption <= 0 {
		return apperror.NewMissingSetting("month_average_consumption")
	}
	return nil
}

// Lot is a batch of a single inventory item with its own expiration date
// and unit cost. Lots are never deleted, only exhausted.
type Lot struct {
	LotID       id.ID  `db:"lot_uuid"`
	InventoryID id.ID  `db:"inventory_uuid"`
	DepotID     id.ID  `db:"depot_uuid"`
	Label       string `db:"label"`

	Quantity       int         `db:"quantity"`
	UnitCost       types.Money `db:"unit_cost"`
	ExpirationDate time.Time   `db:"expiration_date"`
	PackageSize    int         `db:"package_size"`

	// Tracking flags inherited from the inventory group.
	TrackingExpiration  bool `db:"tracking_expiration"`
	TrackingConsumption bool `db:"tracking_consumption"`

	// Per-item indicator inputs.
	Delay                  float64 `db:"delay"`                     // lead time, months
	MinMonthsSecurityStock float64 `db:"min_months_security_stock"` // security multiplier
	PurchaseInterval       float64 `db:"purchase_interval"`         // item-level, months
	DepotPurchaseInterval  float64 `db:"default_purchase_interval"` // depot-level, months
}

// Movement is an immutable ledger entry. Corrections are made via new
// offsetting movements, never by updating existing rows.
type Movement struct {
	LotID      id.ID `db:"lot_uuid"`
	DepotID    id.ID `db:"depot_uuid"`
	DocumentID id.ID `db:"document_uuid"`
	// EntityID is the counterparty: patient, service or peer depot.
	EntityID id.ID `db:"entity_uuid"`

	FluxID FluxType  `db:"flux_id"`
	IsExit bool      `db:"is_exit"`
	Date   time.Time `db:"date"`

	Quantity int         `db:"quantity"`
	UnitCost types.Money `db:"unit_cost"`
}

// DepotInventory identifies one (depot, inventory) pair.
type DepotInventory struct {
	DepotID     id.ID
	InventoryID id.ID
}

// Key concatenates the pair ids; consumption lookups are keyed by it.
func (p DepotInventory) Key() string {
	return p.DepotID.String() + "-" + p.InventoryID.String()
}

// InventoryIndicators is the derived per-(depot, inventory) snapshot.
// Recomputed on every query, never cached beyond the request.
type InventoryIndicators struct {
	DepotID     id.ID `json:"depotId"`
	InventoryID id.ID `json:"inventoryId"`

	Quantity       int `json:"quantity"`
	UsableQuantity int `json:"usableQuantity"`

	CMM           float64 `json:"avgConsumption"`
	NoConsumption bool    `json:"noConsumption"`

	SecurityStock float64 `json:"securityStock"` // CMM * delay
	MinimumStock  float64 `json:"minimumStock"`  // security * multiplier
	MaximumStock  float64 `json:"maximumStock"`  // CMM * purchase interval + minimum

	// MonthsOfStock is nil when CMM is zero: a defined "no consumption"
	// state, not an error.
	MonthsOfStock *float64 `json:"monthsOfStock"`

	RefillQuantity int    `json:"refillQuantity"` // max(0, maximum - quantity)
	Status         Status `json:"status"`
}

// LotIndicators is the derived per-lot snapshot produced by the
// FIFO-by-expiration depletion simulation.
type LotIndicators struct {
	Lot

	Exhausted         bool `json:"exhausted"`
	Expired           bool `json:"expired"`
	NearExpiration    bool `json:"nearExpiration"`
	AtRiskOfStockOut  bool `json:"atRiskOfStockOut"`

	// UsableQuantityRemaining is the part of the lot that can still be
	// consumed before it expires or the depot runs out.
	UsableQuantityRemaining float64 `json:"usableQuantityRemaining"`

	RiskQuantity int `json:"riskQuantity"` // quantity unlikely to be consumed in time
	RiskDays     int `json:"riskDays"`     // risk quantity expressed in days of consumption

	// LotLifetimeDays is the usable lifetime of the lot in days, bounded
	// by expiration or stock-out, whichever comes first.
	LotLifetimeDays float64 `json:"lotLifetimeDays"`

	// MinStockDate is when consumption of this lot begins (earlier lots
	// deplete first); MaxStockDate is when it stops being useful.
	MinStockDate time.Time `json:"minStockDate"`
	MaxStockDate time.Time `json:"maxStockDate"`
}

// DepotSnapshot aggregates the indicator outputs for one depot as of a date.
type DepotSnapshot struct {
	DepotID id.ID     `json:"depotId"`
	AsOf    time.Time `json:"asOf"`

	Inventories []InventoryIndicators `json:"inventories"`
	Lots        []LotIndicators       `json:"lots"`
}
