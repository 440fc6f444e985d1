// Package models defines data structures for Folio
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TransactionType identifies the direction of a trade.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Validation error taxonomy. ErrValidation covers malformed input;
// ErrOversell is a consistency violation (selling more than is held).
var (
	ErrValidation = errors.New("validation error")
	ErrOversell   = errors.New("sell exceeds held quantity")
)

// Transaction is an immutable buy/sell record. It is never mutated after
// insert; corrections are made by deleting and re-adding.
type Transaction struct {
	ID        string          `json:"id"`
	Ticker    string          `json:"ticker"`
	Type      TransactionType `json:"type"`
	Quantity  float64         `json:"quantity"`
	Price     float64         `json:"price"`
	Currency  string          `json:"currency"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate checks the transaction fields. It does not check ledger
// consistency (oversell); that requires the full ticker history.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Ticker) == "" {
		return fmt.Errorf("%w: ticker is required", ErrValidation)
	}
	if t.Type != TransactionBuy && t.Type != TransactionSell {
		return fmt.Errorf("%w: type must be BUY or SELL, got %q", ErrValidation, t.Type)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %g", ErrValidation, t.Quantity)
	}
	if t.Price <= 0 {
		return fmt.Errorf("%w: price must be positive, got %g", ErrValidation, t.Price)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

// SortTransactions orders transactions for reduction: by trade date
// ascending, ties broken by ID ascending so replays are deterministic
// regardless of insertion order.
func SortTransactions(txs []*Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		di, dj := txs[i].Date, txs[j].Date
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return txs[i].ID < txs[j].ID
	})
}
