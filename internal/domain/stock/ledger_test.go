package stock

import (
	"testing"
	"time"

	"medistock/internal/core/types"
)

func entry(qty int, cost string, date time.Time) Movement {
	return Movement{
		FluxID:   FluxFromPurchase,
		IsExit:   false,
		Date:     date,
		Quantity: qty,
		UnitCost: types.MustMoney(cost),
	}
}

func exit(qty int, date time.Time) Movement {
	return Movement{
		FluxID:   FluxToPatient,
		IsExit:   true,
		Date:     date,
		Quantity: qty,
	}
}

func TestBuildWACLedger_RoundTrip(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	movements := []Movement{
		entry(10, "5", day),
		exit(4, day.AddDate(0, 0, 1)),
	}

	ledger := BuildWACLedger(Balance{}, movements, types.Money{})

	after := ledger.Lines[0]
	if after.StockQuantity != 10 || !after.StockUnitCost.Equal(types.MustMoney("5")) || !after.StockValue.Equal(types.MustMoney("50")) {
		t.Errorf("after entry: want (10, 5, 50), got (%d, %s, %s)",
			after.StockQuantity, after.StockUnitCost, after.StockValue)
	}

	after = ledger.Lines[1]
	if after.StockQuantity != 6 || !after.StockUnitCost.Equal(types.MustMoney("5")) || !after.StockValue.Equal(types.MustMoney("30")) {
		t.Errorf("after exit: want (6, 5, 30), got (%d, %s, %s)",
			after.StockQuantity, after.StockUnitCost, after.StockValue)
	}

	if ledger.Closing.Quantity != 6 || !ledger.Closing.UnitCost.Equal(types.MustMoney("5")) {
		t.Errorf("closing: want (6, 5), got (%d, %s)", ledger.Closing.Quantity, ledger.Closing.UnitCost)
	}
}

func TestBuildWACLedger_NegativeQuantityDivisor(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	movements := []Movement{
		exit(5, day),
		entry(5, "3", day.AddDate(0, 0, 1)),
	}

	ledger := BuildWACLedger(Balance{}, movements, types.Money{})

	// The entry must average over its own quantity, not the cumulative
	// negative-adjusted total.
	if !ledger.Closing.UnitCost.Equal(types.MustMoney("3")) {
		t.Errorf("closing unit cost: want 3, got %s", ledger.Closing.UnitCost)
	}
}

func TestBuildWACLedger_NegativeValueClamp(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	movements := []Movement{
		entry(10, "5", day),
		exit(12, day.AddDate(0, 0, 1)),
	}

	ledger := BuildWACLedger(Balance{}, movements, types.Money{})

	line := ledger.Lines[1]
	if line.StockQuantity != -2 {
		t.Errorf("stock quantity: want -2, got %d", line.StockQuantity)
	}
	if !line.StockValue.IsZero() {
		t.Errorf("negative stock value must be clamped to zero, got %s", line.StockValue)
	}
}

func TestBuildWACLedger_WeightedAverage(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	movements := []Movement{
		entry(10, "4", day),
		entry(10, "6", day.AddDate(0, 0, 1)),
	}

	ledger := BuildWACLedger(Balance{}, movements, types.Money{})

	if !ledger.Closing.UnitCost.Equal(types.MustMoney("5")) {
		t.Errorf("weighted average cost: want 5, got %s", ledger.Closing.UnitCost)
	}
	if ledger.Closing.Quantity != 20 {
		t.Errorf("closing quantity: want 20, got %d", ledger.Closing.Quantity)
	}
}

func TestBuildWACLedger_OpeningBalance(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	opening := Balance{Quantity: 10, UnitCost: types.MustMoney("2")}
	movements := []Movement{entry(10, "4", day)}

	ledger := BuildWACLedger(opening, movements, types.Money{})

	// (10*2 + 10*4) / 20 = 3
	if !ledger.Closing.UnitCost.Equal(types.MustMoney("3")) {
		t.Errorf("closing unit cost: want 3, got %s", ledger.Closing.UnitCost)
	}
}

func TestBuildWACLedger_ExchangeRate(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	opening := Balance{Quantity: 5, UnitCost: types.MustMoney("2")}
	movements := []Movement{entry(5, "4", day)}

	ledger := BuildWACLedger(opening, movements, types.MustMoney("2"))

	// Opening cost 2*2=4, entry cost 4*2=8: (5*4 + 5*8) / 10 = 6
	if !ledger.Opening.UnitCost.Equal(types.MustMoney("4")) {
		t.Errorf("opening unit cost: want 4 after rate, got %s", ledger.Opening.UnitCost)
	}
	if !ledger.Closing.UnitCost.Equal(types.MustMoney("6")) {
		t.Errorf("closing unit cost: want 6, got %s", ledger.Closing.UnitCost)
	}
}

func TestBuildWACLedger_Totals(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	movements := []Movement{
		entry(10, "5", day),
		exit(4, day.AddDate(0, 0, 1)),
		entry(2, "8", day.AddDate(0, 0, 2)),
	}

	ledger := BuildWACLedger(Balance{}, movements, types.Money{})

	if ledger.Totals.EntryQuantity != 12 {
		t.Errorf("entry quantity total: want 12, got %d", ledger.Totals.EntryQuantity)
	}
	if !ledger.Totals.EntryValue.Equal(types.MustMoney("66")) {
		t.Errorf("entry value total: want 66, got %s", ledger.Totals.EntryValue)
	}
	if ledger.Totals.ExitQuantity != 4 {
		t.Errorf("exit quantity total: want 4, got %d", ledger.Totals.ExitQuantity)
	}
	if !ledger.Totals.ExitValue.Equal(types.MustMoney("20")) {
		t.Errorf("exit value total: want 20, got %s", ledger.Totals.ExitValue)
	}
}

func TestBuildWACLedger_Empty(t *testing.T) {
	ledger := BuildWACLedger(Balance{}, nil, types.Money{})

	if len(ledger.Lines) != 0 {
		t.Errorf("want no lines, got %d", len(ledger.Lines))
	}
	if ledger.Closing.Quantity != 0 || !ledger.Closing.UnitCost.IsZero() {
		t.Errorf("closing must stay at the zero opening, got %+v", ledger.Closing)
	}
}
