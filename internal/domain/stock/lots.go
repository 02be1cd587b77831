package stock

import (
	"math"
	"sort"
	"time"
)

// ComputeLotIndicators simulates sequential consumption across all lots of
// one (depot, inventory) pair and flags expired, exhausted and
// near-expiration lots.
//
// Lots are consumed soonest-expiring-first: ascending remaining lifetime,
// then ascending quantity as the tie-break. A running accumulator tracks
// the days of consumption absorbed by earlier lots, so a lot's stock-out
// date accounts for everything consumed before it.
//
// pairStatus is the pair's indicator classification; lots of a pair sitting
// at or below its minimum threshold are flagged at risk of stock out.
func ComputeLotIndicators(lots []Lot, cmm float64, pairStatus Status, asOf time.Time) []LotIndicators {
	out := make([]LotIndicators, 0, len(lots))
	for _, l := range lots {
		li := LotIndicators{Lot: l}

		li.Exhausted = l.Quantity <= 0
		li.Expired = !li.Exhausted && l.TrackingExpiration && l.ExpirationDate.Before(asOf)

		// Suppressed, not deleted: items outside expiration tracking have
		// no meaningful expiration date to display or simulate against.
		if !l.TrackingExpiration {
			li.ExpirationDate = time.Time{}
		}

		out = append(out, li)
	}

	sort.SliceStable(out, func(i, j int) bool {
		li, lj := lifetimeDays(out[i], asOf), lifetimeDays(out[j], asOf)
		if li != lj {
			return li < lj
		}
		return out[i].Quantity < out[j].Quantity
	})

	daily := cmm / DaysPerMonth

	// Days of consumption already absorbed by lots ahead in the queue.
	consumedDays := 0.0

	for i := range out {
		li := &out[i]

		li.AtRiskOfStockOut = !li.Expired &&
			(pairStatus == StatusMinimumReached || pairStatus == StatusSecurityReached)

		if !li.TrackingConsumption || li.Exhausted || li.Expired {
			continue
		}

		if daily <= 0 {
			// No consumption: the lot is never depleted, only expiration
			// can claim it.
			li.UsableQuantityRemaining = float64(li.Quantity)
			continue
		}

		lifetime := lifetimeDays(*li, asOf)

		// Days to deplete this lot once its turn comes.
		depletionDays := float64(li.Quantity) / daily

		// Compared in day space, not as a time.Time: a slow mover's
		// stock-out horizon can exceed what a Duration can hold.
		if li.TrackingExpiration {
			li.NearExpiration = lifetime <= consumedDays+depletionDays
		}

		// Usable lifetime is bounded by whichever comes first: expiration
		// or stock-out by consumption.
		usableDays := depletionDays
		if li.TrackingExpiration && lifetime-consumedDays < depletionDays {
			usableDays = math.Max(0, lifetime-consumedDays)
		}

		li.UsableQuantityRemaining = math.Min(usableDays*daily, float64(li.Quantity))
		li.LotLifetimeDays = usableDays
		li.MinStockDate = addDays(asOf, consumedDays)
		li.MaxStockDate = addDays(asOf, consumedDays+usableDays)

		risk := math.Round(float64(li.Quantity) - li.UsableQuantityRemaining)
		if risk < daily {
			// Below one day of consumption the difference is rounding
			// noise, not a real risk.
			risk = 0
		}
		li.RiskQuantity = int(risk)
		if risk > 0 {
			li.RiskDays = int(math.Round(risk / daily))
		}

		consumedDays += usableDays
	}

	return out
}

// lifetimeDays returns the remaining lifetime of a lot in days as of the
// given date. Lots without expiration tracking never expire.
func lifetimeDays(li LotIndicators, asOf time.Time) float64 {
	if !li.TrackingExpiration || li.ExpirationDate.IsZero() {
		return math.MaxFloat64
	}
	return li.ExpirationDate.Sub(asOf).Hours() / 24
}

// maxAddDays caps day counts before the Duration conversion; beyond it the
// int64 nanosecond arithmetic would overflow. Roughly 146 years, far past
// any date the simulation needs to distinguish.
const maxAddDays = float64(1<<62) / (24 * float64(time.Hour))

func addDays(t time.Time, days float64) time.Time {
	if days > maxAddDays {
		days = maxAddDays
	}
	return t.Add(time.Duration(days * 24 * float64(time.Hour)))
}
