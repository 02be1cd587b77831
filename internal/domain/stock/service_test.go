package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/core/types"
)

type fakeLotSource struct {
	lots []Lot
	err  error
}

func (f *fakeLotSource) DepotLots(context.Context, id.ID, time.Time) ([]Lot, error) {
	return f.lots, f.err
}

type fakeMovementSource struct {
	opening   Balance
	movements []Movement
}

func (f *fakeMovementSource) OpeningBalance(context.Context, DepotInventory, time.Time) (Balance, error) {
	return f.opening, nil
}

func (f *fakeMovementSource) Movements(context.Context, DepotInventory, time.Time, time.Time) ([]Movement, error) {
	return f.movements, nil
}

type fakeTransferSource struct {
	outbound []Movement
	inbound  []Movement
}

func (f *fakeTransferSource) TransferMovements(context.Context, LostStockFilter) ([]Movement, []Movement, error) {
	return f.outbound, f.inbound, nil
}

type fakeSettingsSource struct {
	settings Settings
	err      error
}

func (f *fakeSettingsSource) StockSettings(context.Context) (Settings, error) {
	return f.settings, f.err
}

func TestService_DepotSnapshot(t *testing.T) {
	depot := id.New()
	inventoryA, inventoryB := id.New(), id.New()
	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	lots := []Lot{
		{
			LotID: id.New(), DepotID: depot, InventoryID: inventoryA,
			Quantity: 100, ExpirationDate: asOf.AddDate(1, 0, 0),
			TrackingExpiration: true, TrackingConsumption: true,
			Delay: 1, MinMonthsSecurityStock: 1, PurchaseInterval: 1,
		},
		{
			LotID: id.New(), DepotID: depot, InventoryID: inventoryA,
			Quantity: 50, ExpirationDate: asOf.AddDate(2, 0, 0),
			TrackingExpiration: true, TrackingConsumption: true,
			Delay: 1, MinMonthsSecurityStock: 1, PurchaseInterval: 1,
		},
		{
			LotID: id.New(), DepotID: depot, InventoryID: inventoryB,
			Quantity: 10,
			Delay:    1, MinMonthsSecurityStock: 1, PurchaseInterval: 1,
		},
	}

	pairA := DepotInventory{DepotID: depot, InventoryID: inventoryA}
	consumption := &fakeConsumptionSource{
		byKey: map[string]Consumption{
			pairA.Key(): {Algorithms: map[string]float64{"algo_def": 30.5}},
		},
	}

	service := NewService(
		&fakeLotSource{lots: lots},
		&fakeMovementSource{},
		&fakeTransferSource{},
		&fakeSettingsSource{settings: validSettings()},
		consumption,
	)

	snapshot, err := service.DepotSnapshot(context.Background(), depot, asOf)
	require.NoError(t, err)

	require.Len(t, snapshot.Inventories, 2)
	require.Len(t, snapshot.Lots, 3)

	first := snapshot.Inventories[0]
	assert.Equal(t, inventoryA, first.InventoryID)
	assert.Equal(t, 150, first.Quantity)
	assert.Equal(t, 30.5, first.CMM)
	assert.False(t, first.NoConsumption)

	// Inventory B has no computed consumption and defaults to zero.
	second := snapshot.Inventories[1]
	assert.Equal(t, inventoryB, second.InventoryID)
	assert.True(t, second.NoConsumption)
	assert.Equal(t, StatusUnusedStock, second.Status)
}

func TestService_DepotSnapshot_LotWithoutDepot(t *testing.T) {
	service := NewService(
		&fakeLotSource{lots: []Lot{{LotID: id.New(), Quantity: 1}}},
		&fakeMovementSource{},
		&fakeTransferSource{},
		&fakeSettingsSource{settings: validSettings()},
		&fakeConsumptionSource{},
	)

	_, err := service.DepotSnapshot(context.Background(), id.New(), time.Now())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDataIntegrity, appErr.Code)
}

func TestService_DepotSnapshot_MissingSettings(t *testing.T) {
	service := NewService(
		&fakeLotSource{},
		&fakeMovementSource{},
		&fakeTransferSource{},
		&fakeSettingsSource{settings: Settings{}},
		&fakeConsumptionSource{},
	)

	_, err := service.DepotSnapshot(context.Background(), id.New(), time.Now())
	assert.True(t, apperror.IsMissingSetting(err))
}

func TestService_StockSheet(t *testing.T) {
	depot, inventory := id.New(), id.New()
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	movements := []Movement{
		{DepotID: depot, FluxID: FluxFromPurchase, Date: day, Quantity: 10, UnitCost: types.MustMoney("5")},
		{DepotID: depot, FluxID: FluxToPatient, IsExit: true, Date: day.AddDate(0, 0, 1), Quantity: 4},
	}

	service := NewService(
		&fakeLotSource{},
		&fakeMovementSource{opening: Balance{Quantity: 2, UnitCost: types.MustMoney("5")}, movements: movements},
		&fakeTransferSource{},
		&fakeSettingsSource{settings: validSettings()},
		&fakeConsumptionSource{},
	)

	ledger, err := service.StockSheet(context.Background(),
		DepotInventory{DepotID: depot, InventoryID: inventory},
		day, day.AddDate(0, 1, 0), types.Money{})
	require.NoError(t, err)

	assert.Equal(t, 2, ledger.Opening.Quantity)
	assert.Equal(t, 8, ledger.Closing.Quantity)
	assert.True(t, ledger.Closing.UnitCost.Equal(types.MustMoney("5")))
}

func TestService_StockSheet_MovementWithoutDepot(t *testing.T) {
	service := NewService(
		&fakeLotSource{},
		&fakeMovementSource{movements: []Movement{{FluxID: FluxFromPurchase, Quantity: 1}}},
		&fakeTransferSource{},
		&fakeSettingsSource{},
		&fakeConsumptionSource{},
	)

	_, err := service.StockSheet(context.Background(), DepotInventory{}, time.Time{}, time.Now(), types.Money{})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDataIntegrity, appErr.Code)
}

func TestService_LostStock(t *testing.T) {
	doc, lot := id.New(), id.New()
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	service := NewService(
		&fakeLotSource{},
		&fakeMovementSource{},
		&fakeTransferSource{
			outbound: []Movement{shipment(doc, lot, id.New(), id.New(), 10, "4", day)},
			inbound:  []Movement{receipt(doc, lot, id.New(), 6, day)},
		},
		&fakeSettingsSource{},
		&fakeConsumptionSource{},
	)

	rows, err := service.LostStock(context.Background(), LostStockFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Difference)
}
