package stock

import (
	"math"
	"time"

	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

// PairStock is the aggregated input for one (depot, inventory) pair:
// quantity on hand plus the per-item threshold parameters carried by its
// lot rows.
type PairStock struct {
	DepotID     id.ID
	InventoryID id.ID

	// Quantity is the total quantity on hand across lots.
	Quantity int

	// ExpiredQuantity is the expired-but-unconsumed portion, subtracted
	// from the usable quantity when expired-stock exclusion is enabled.
	ExpiredQuantity int

	Delay                  float64 // item lead time, months
	MinMonthsSecurityStock float64 // security stock multiplier
	PurchaseInterval       float64 // item-level, months
	DepotPurchaseInterval  float64 // depot-level, months
}

// PairStockFromLots aggregates a pair's lots into the indicator input.
// Threshold parameters are identical across lots of one inventory item,
// so they are taken from the first lot.
func PairStockFromLots(lots []Lot, asOf time.Time) PairStock {
	if len(lots) == 0 {
		return PairStock{}
	}

	ps := PairStock{
		DepotID:                lots[0].DepotID,
		InventoryID:            lots[0].InventoryID,
		Delay:                  lots[0].Delay,
		MinMonthsSecurityStock: lots[0].MinMonthsSecurityStock,
		PurchaseInterval:       lots[0].PurchaseInterval,
		DepotPurchaseInterval:  lots[0].DepotPurchaseInterval,
	}

	for _, l := range lots {
		if l.Quantity <= 0 {
			continue
		}
		ps.Quantity += l.Quantity
		if l.TrackingExpiration && l.ExpirationDate.Before(asOf) {
			ps.ExpiredQuantity += l.Quantity
		}
	}

	return ps
}

// ComputeInventoryIndicators derives the threshold snapshot for one
// (depot, inventory) pair from its quantity on hand and CMM.
//
//	securityStock = CMM * delay
//	minimumStock  = securityStock * multiplier
//	maximumStock  = CMM * purchaseInterval + minimumStock
//
// The item lead time is floored by Settings.MinDelay and the purchase
// interval is the maximum of the enterprise, depot and item values.
func ComputeInventoryIndicators(pair PairStock, cmm float64, settings Settings) (InventoryIndicators, error) {
	if err := settings.Validate(); err != nil {
		return InventoryIndicators{}, err
	}

	delay := math.Max(settings.MinDelay, pair.Delay)
	interval := math.Max(settings.DefaultPurchaseInterval,
		math.Max(pair.DepotPurchaseInterval, pair.PurchaseInterval))

	security := types.RoundThreshold(cmm * delay)
	minimum := types.RoundThreshold(security * pair.MinMonthsSecurityStock)
	maximum := types.RoundThreshold(cmm*interval + minimum)

	usable := pair.Quantity
	if settings.EnableExpiredStockOut {
		usable -= pair.ExpiredQuantity
	}

	ind := InventoryIndicators{
		DepotID:        pair.DepotID,
		InventoryID:    pair.InventoryID,
		Quantity:       pair.Quantity,
		UsableQuantity: usable,
		CMM:            cmm,
		NoConsumption:  cmm == 0,
		SecurityStock:  security,
		MinimumStock:   minimum,
		MaximumStock:   maximum,
	}

	// Division-by-zero guard: zero CMM is a defined "no consumption"
	// state and leaves the months-of-stock estimate undefined.
	if cmm > 0 {
		months := math.Floor(float64(pair.Quantity) / cmm)
		ind.MonthsOfStock = &months
	}

	if refill := maximum - float64(pair.Quantity); refill > 0 {
		ind.RefillQuantity = int(math.Trunc(refill))
	}

	ind.Status = classifyStatus(usable, cmm, security, minimum, maximum)

	return ind, nil
}

// classifyStatus partitions a pair into exactly one status. Boundaries are
// inclusive on the lower threshold: a usable quantity equal to the
// security stock is security_reached, equal to the minimum is
// minimum_reached, equal to the maximum is in_stock.
func classifyStatus(usable int, cmm, security, minimum, maximum float64) Status {
	q := float64(usable)
	switch {
	case usable <= 0:
		return StatusStockOut
	case cmm == 0:
		return StatusUnusedStock
	case q <= security:
		return StatusSecurityReached
	case q <= minimum:
		return StatusMinimumReached
	case q <= maximum:
		return StatusInStock
	default:
		return StatusOverMaximum
	}
}
