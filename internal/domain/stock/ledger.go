package stock

import (
	"medistock/internal/core/types"
)

// Balance is a quantity plus weighted-average unit cost. The zero value is
// the opening balance used when no prior state exists.
type Balance struct {
	Quantity int         `json:"quantity"`
	UnitCost types.Money `json:"unitCost"`
}

// Value returns quantity x unit cost.
func (b Balance) Value() types.Money {
	return b.UnitCost.Mul(types.NewMoneyFromInt(int64(b.Quantity)))
}

// LedgerLine is one movement replayed against the running stock state.
// Exactly one of the entry/exit triplets is populated.
type LedgerLine struct {
	Movement

	EntryQuantity int         `json:"entryQuantity"`
	EntryUnitCost types.Money `json:"entryUnitCost"`
	EntryValue    types.Money `json:"entryValue"`

	ExitQuantity int         `json:"exitQuantity"`
	ExitUnitCost types.Money `json:"exitUnitCost"`
	ExitValue    types.Money `json:"exitValue"`

	StockQuantity int         `json:"stockQuantity"`
	StockUnitCost types.Money `json:"stockUnitCost"`
	StockValue    types.Money `json:"stockValue"`
}

// LedgerTotals accumulates entry and exit quantities and values across the
// replayed period.
type LedgerTotals struct {
	EntryQuantity int         `json:"entryQuantity"`
	EntryValue    types.Money `json:"entryValue"`
	ExitQuantity  int         `json:"exitQuantity"`
	ExitValue     types.Money `json:"exitValue"`
}

// Ledger is the weighted-average-cost sheet for one (depot, inventory)
// pair over a period.
type Ledger struct {
	Opening Balance      `json:"opening"`
	Lines   []LedgerLine `json:"lines"`
	Totals  LedgerTotals `json:"totals"`
	Closing Balance      `json:"closing"`
}

// BuildWACLedger replays a chronologically-ordered sequence of movements
// against an opening balance, recomputing the weighted-average unit cost
// on every entry.
//
// Exits leave the unit cost unchanged; a negative running stock value is
// clamped to zero before it feeds the next entry. When the running
// quantity has gone negative (exits exceeding recorded entries), the entry
// recomputes the average over the movement's own quantity instead of the
// negative-adjusted total. That divisor choice is a long-standing quirk of
// the valuation sheet and is preserved deliberately: its behavior under
// sustained negative stock is unverified, but changing it would silently
// re-value historical sheets.
//
// exchangeRate multiplies every unit cost before computation; pass a zero
// value to use a rate of 1. No rounding is applied mid-calculation.
func BuildWACLedger(opening Balance, movements []Movement, exchangeRate types.Money) Ledger {
	rate := exchangeRate
	if rate.IsZero() {
		rate = types.One()
	}

	qty := opening.Quantity
	cost := opening.UnitCost.Mul(rate)
	value := cost.Mul(types.NewMoneyFromInt(int64(qty)))

	ledger := Ledger{
		Opening: Balance{Quantity: qty, UnitCost: cost},
		Lines:   make([]LedgerLine, 0, len(movements)),
	}

	for _, m := range movements {
		line := LedgerLine{Movement: m}
		mQty := types.NewMoneyFromInt(int64(m.Quantity))
		mCost := m.UnitCost.Mul(rate)

		if m.IsExit {
			qty -= m.Quantity
			value = cost.Mul(types.NewMoneyFromInt(int64(qty)))
			if value.IsNegative() {
				value = types.Zero()
			}

			line.ExitQuantity = m.Quantity
			line.ExitUnitCost = cost
			line.ExitValue = cost.Mul(mQty)

			ledger.Totals.ExitQuantity += m.Quantity
			ledger.Totals.ExitValue = ledger.Totals.ExitValue.Add(line.ExitValue)
		} else {
			base := value
			if base.IsNegative() {
				base = types.Zero()
			}
			newValue := base.Add(mCost.Mul(mQty))

			divisor := int64(qty + m.Quantity)
			if qty < 0 {
				divisor = int64(m.Quantity)
			}
			if divisor != 0 {
				cost = newValue.Div(types.NewMoneyFromInt(divisor))
			}

			qty += m.Quantity
			value = newValue

			line.EntryQuantity = m.Quantity
			line.EntryUnitCost = mCost
			line.EntryValue = mCost.Mul(mQty)

			ledger.Totals.EntryQuantity += m.Quantity
			ledger.Totals.EntryValue = ledger.Totals.EntryValue.Add(line.EntryValue)
		}

		line.StockQuantity = qty
		line.StockUnitCost = cost
		line.StockValue = value
		ledger.Lines = append(ledger.Lines, line)
	}

	ledger.Closing = Balance{Quantity: qty, UnitCost: cost}
	return ledger
}
