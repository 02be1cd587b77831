package stock

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"medistock/internal/core/apperror"
)

// Consumption holds the algorithm-keyed monthly consumption estimates the
// external aggregation routine computes for one (depot, inventory) pair.
type Consumption struct {
	Algorithms map[string]float64
}

// ConsumptionSource is the external aggregation routine invoked per
// (depot, inventory) pair as of a given date. window is the averaging
// window in months.
type ConsumptionSource interface {
	AverageConsumption(ctx context.Context, pair DepotInventory, asOf time.Time, window int) (Consumption, error)
}

// CMMEntry is the computed consumption for one pair: every algorithm's
// estimate plus the value of the configured algorithm.
type CMMEntry struct {
	Algorithms map[string]float64
	Selected   float64
}

// CMMIndex is a lookup of computed consumption keyed by the concatenated
// depot and inventory ids.
type CMMIndex map[string]CMMEntry

// Lookup returns the entry for a pair. Pairs with no computed value
// default to a CMM of zero; callers surface that as the no-consumption
// flag rather than an error.
func (idx CMMIndex) Lookup(pair DepotInventory) CMMEntry {
	if e, ok := idx[pair.Key()]; ok {
		return e
	}
	return CMMEntry{Selected: 0}
}

// defaultLookupConcurrency bounds the parallel consumption lookups. The
// per-pair queries are independent, so they may be issued to the data
// store without ordering constraints.
const defaultLookupConcurrency = 8

// CMMCalculator computes average monthly consumption for a batch of
// (depot, inventory) pairs, deduplicating identical pairs before querying.
type CMMCalculator struct {
	source      ConsumptionSource
	concurrency int
}

// NewCMMCalculator creates a calculator over the given aggregation source.
func NewCMMCalculator(source ConsumptionSource) *CMMCalculator {
	return &CMMCalculator{source: source, concurrency: defaultLookupConcurrency}
}

// Compute returns the consumption index for the given pairs as of a date.
// The caller must supply the consumption settings; a missing algorithm key
// or averaging window fails loudly instead of defaulting to zero.
// Data-store errors propagate unchanged.
func (c *CMMCalculator) Compute(ctx context.Context, pairs []DepotInventory, asOf time.Time, settings Settings) (CMMIndex, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	// Deduplicate before querying: depot listings repeat a pair once per lot.
	unique := make([]DepotInventory, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p.Key()]; ok {
			continue
		}
		seen[p.Key()] = struct{}{}
		unique = append(unique, p)
	}

	entries := make([]CMMEntry, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, pair := range unique {
		i, pair := i, pair
		g.Go(func() error {
			consumption, err := c.source.AverageConsumption(gctx, pair, asOf, settings.MonthAverageConsumption)
			if err != nil {
				if apperror.IsNotFound(err) {
					return nil // no computed value, defaults to zero
				}
				return err
			}
			entries[i] = CMMEntry{
				Algorithms: consumption.Algorithms,
				Selected:   consumption.Algorithms[settings.AverageConsumptionAlgo],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(CMMIndex, len(unique))
	for i, pair := range unique {
		index[pair.Key()] = entries[i]
	}
	return index, nil
}
