package stock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
)

type fakeConsumptionSource struct {
	mu      sync.Mutex
	calls   int
	byKey   map[string]Consumption
	failAll error
}

func (f *fakeConsumptionSource) AverageConsumption(_ context.Context, pair DepotInventory, _ time.Time, _ int) (Consumption, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failAll != nil {
		return Consumption{}, f.failAll
	}
	if c, ok := f.byKey[pair.Key()]; ok {
		return c, nil
	}
	return Consumption{}, apperror.NewNotFound("consumption", pair.Key())
}

func TestCMMCalculator_Compute(t *testing.T) {
	depot, inventory := id.New(), id.New()
	pair := DepotInventory{DepotID: depot, InventoryID: inventory}

	source := &fakeConsumptionSource{
		byKey: map[string]Consumption{
			pair.Key(): {Algorithms: map[string]float64{"algo_def": 42.5, "algo_msh": 40}},
		},
	}
	calc := NewCMMCalculator(source)

	index, err := calc.Compute(context.Background(), []DepotInventory{pair}, time.Now(), validSettings())
	require.NoError(t, err)

	entry := index.Lookup(pair)
	assert.Equal(t, 42.5, entry.Selected)
	assert.Equal(t, 40.0, entry.Algorithms["algo_msh"])
}

func TestCMMCalculator_DeduplicatesPairs(t *testing.T) {
	pair := DepotInventory{DepotID: id.New(), InventoryID: id.New()}
	other := DepotInventory{DepotID: id.New(), InventoryID: id.New()}

	source := &fakeConsumptionSource{}
	calc := NewCMMCalculator(source)

	// A depot listing repeats a pair once per lot.
	_, err := calc.Compute(context.Background(),
		[]DepotInventory{pair, pair, other, pair},
		time.Now(), validSettings())
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls, "each unique pair must be queried exactly once")
}

func TestCMMCalculator_NotFoundDefaultsToZero(t *testing.T) {
	pair := DepotInventory{DepotID: id.New(), InventoryID: id.New()}
	calc := NewCMMCalculator(&fakeConsumptionSource{})

	index, err := calc.Compute(context.Background(), []DepotInventory{pair}, time.Now(), validSettings())
	require.NoError(t, err)

	entry := index.Lookup(pair)
	assert.Zero(t, entry.Selected)
}

func TestCMMCalculator_MissingSettings(t *testing.T) {
	calc := NewCMMCalculator(&fakeConsumptionSource{})

	_, err := calc.Compute(context.Background(), nil, time.Now(), Settings{})
	require.Error(t, err)
	assert.True(t, apperror.IsMissingSetting(err))
}

func TestCMMCalculator_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("aggregation timed out")
	calc := NewCMMCalculator(&fakeConsumptionSource{failAll: boom})

	_, err := calc.Compute(context.Background(),
		[]DepotInventory{{DepotID: id.New(), InventoryID: id.New()}},
		time.Now(), validSettings())
	require.ErrorIs(t, err, boom)
}

func TestCMMCalculator_UnknownAlgorithmSelectsZero(t *testing.T) {
	pair := DepotInventory{DepotID: id.New(), InventoryID: id.New()}
	source := &fakeConsumptionSource{
		byKey: map[string]Consumption{
			pair.Key(): {Algorithms: map[string]float64{"algo_msh": 12}},
		},
	}
	calc := NewCMMCalculator(source)

	settings := validSettings()
	settings.AverageConsumptionAlgo = "algo_def"

	index, err := calc.Compute(context.Background(), []DepotInventory{pair}, time.Now(), settings)
	require.NoError(t, err)

	entry := index.Lookup(pair)
	assert.Zero(t, entry.Selected, "algorithm absent from the result must select zero")
	assert.Equal(t, 12.0, entry.Algorithms["algo_msh"])
}

func TestCMMIndex_LookupDefault(t *testing.T) {
	index := CMMIndex{}
	entry := index.Lookup(DepotInventory{DepotID: id.New(), InventoryID: id.New()})
	assert.Zero(t, entry.Selected)
	assert.Nil(t, entry.Algorithms)
}
