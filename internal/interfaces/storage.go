package interfaces

import (
	"context"

	"github.com/foliotracker/folio/internal/models"
)

// StorageManager coordinates the persistent stores. Implementations own
// the backend lifecycle; components receive the manager by injection and
// never open or close connections themselves.
type StorageManager interface {
	TransactionStore() TransactionStore
	HoldingStore() HoldingStore
	SnapshotStore() SnapshotStore

	// Lifecycle
	Close() error
}

// TransactionStore persists the append-only transaction ledger.
type TransactionStore interface {
	Insert(ctx context.Context, tx *models.Transaction) error
	Get(ctx context.Context, id string) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error
	// ListByTicker returns all transactions for one ticker, in no
	// particular order; callers sort with models.SortTransactions.
	ListByTicker(ctx context.Context, ticker string) ([]*models.Transaction, error)
	// ListAll returns the full ledger, newest trade date first.
	ListAll(ctx context.Context) ([]*models.Transaction, error)
}

// HoldingStore persists derived holdings, keyed uniquely by ticker.
// Holdings are a cache over the ledger and may be rebuilt at any time.
type HoldingStore interface {
	Upsert(ctx context.Context, holding *models.Holding) error
	Get(ctx context.Context, ticker string) (*models.Holding, error)
	Delete(ctx context.Context, ticker string) error
	// List returns all holdings sorted by ticker ascending.
	List(ctx context.Context) ([]*models.Holding, error)
}

// SnapshotStore persists daily portfolio snapshots, one per calendar date.
type SnapshotStore interface {
	// Upsert saves the snapshot for its date, overwriting any earlier
	// save on the same date.
	Upsert(ctx context.Context, snapshot *models.PortfolioSnapshot) error
	// List returns snapshots from the last `days` days, newest first.
	// days <= 0 means no limit.
	List(ctx context.Context, days int) ([]*models.PortfolioSnapshot, error)
}
