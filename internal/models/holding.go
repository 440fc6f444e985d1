package models

import "time"

// Holding is the derived current position for one ticker. It is rebuilt
// from the full transaction history of the ticker whenever that history
// changes, never patched incrementally, so out-of-order inserts and
// deletes always converge to the same state.
type Holding struct {
	Ticker       string    `json:"ticker"`
	Quantity     float64   `json:"quantity"`
	AveragePrice float64   `json:"average_price"`
	Currency     string    `json:"currency"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Position is the result of folding a transaction history.
type Position struct {
	Quantity  float64
	CostBasis float64
	// RealizedGain accumulates q × (salePrice − avgCostAtSale) over all sells.
	RealizedGain float64
}

// AveragePrice returns the weighted-average cost of the open position,
// or 0 when no position is open.
func (p Position) AveragePrice() float64 {
	if p.Quantity > 0 {
		return p.CostBasis / p.Quantity
	}
	return 0
}

// Open reports whether the fold left an open position. Quantity ≤ 0 means
// the holding does not exist.
func (p Position) Open() bool {
	return p.Quantity > 0
}

// Reduce folds an ordered transaction list for one ticker into a Position
// using the weighted-average-cost method:
//
//   - BUY(q, p): quantity += q; costBasis += q·p.
//   - SELL(q, p): costBasis -= q × (costBasis/quantity) computed before the
//     quantity is decremented. The sale price never changes the average
//     cost of the remaining shares; it only feeds realized gain.
//
// Selling an entire position clamps the cost basis to exactly 0 so no
// floating-point residue survives a full exit. A sell against a
// non-positive position (possible in imported histories) reduces quantity
// but leaves the basis alone, matching the invariant that such positions
// do not exist as holdings.
func Reduce(txs []*Transaction) Position {
	ordered := make([]*Transaction, len(txs))
	copy(ordered, txs)
	SortTransactions(ordered)

	var p Position
	for _, t := range ordered {
		switch t.Type {
		case TransactionBuy:
			p.Quantity += t.Quantity
			p.CostBasis += t.Quantity * t.Price
		case TransactionSell:
			if p.Quantity > 0 {
				avgCost := p.CostBasis / p.Quantity
				p.CostBasis -= t.Quantity * avgCost
				p.RealizedGain += t.Quantity * (t.Price - avgCost)
			}
			p.Quantity -= t.Quantity
			if p.Quantity <= 0 {
				p.CostBasis = 0
			}
		}
	}
	return p
}

// WouldOversell replays the history with candidate included and reports
// whether any sell drives the running quantity negative. Checking the whole
// replay (not just the final total) catches backdated sells.
func WouldOversell(history []*Transaction, candidate *Transaction) bool {
	all := make([]*Transaction, 0, len(history)+1)
	all = append(all, history...)
	all = append(all, candidate)
	SortTransactions(all)

	quantity := 0.0
	for _, t := range all {
		switch t.Type {
		case TransactionBuy:
			quantity += t.Quantity
		case TransactionSell:
			quantity -= t.Quantity
			if quantity < 0 {
				return true
			}
		}
	}
	return false
}
