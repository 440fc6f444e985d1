// Package ledger manages the transaction ledger and the holdings derived
// from it.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/interfaces"
	"github.com/foliotracker/folio/internal/models"
)

// Service implements LedgerService. Holdings are rebuilt from the full
// per-ticker history on every write; nothing is patched incrementally, so
// concurrent writers converge on whatever the store holds when the rebuild
// re-reads it.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new ledger service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// AddTransaction validates and persists a transaction, then rebuilds the
// ticker's holding. Sells that would drive the held quantity negative at
// any point in the replayed history are rejected as a consistency
// violation before anything is persisted.
func (s *Service) AddTransaction(ctx context.Context, tx *models.Transaction) (float64, error) {
	tx.Ticker = strings.ToUpper(strings.TrimSpace(tx.Ticker))
	tx.Type = models.TransactionType(strings.ToUpper(string(tx.Type)))
	if tx.Currency == "" {
		tx.Currency = "SEK"
	}
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	history, err := s.storage.TransactionStore().ListByTicker(ctx, tx.Ticker)
	if err != nil {
		return 0, fmt.Errorf("failed to read ticker history: %w", err)
	}

	if tx.Type == models.TransactionSell && models.WouldOversell(history, tx) {
		return 0, fmt.Errorf("%w: %s holds less than %g units on %s",
			models.ErrOversell, tx.Ticker, tx.Quantity, tx.Date.Format("2006-01-02"))
	}

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.CreatedAt = s.now()

	if err := s.storage.TransactionStore().Insert(ctx, tx); err != nil {
		return 0, fmt.Errorf("failed to persist transaction: %w", err)
	}

	// Realized gain of this sale at the pre-sale average cost. The delta
	// of the accumulated realized gain handles backdated sells, where the
	// average at time of sale differs from today's average.
	var realized float64
	if tx.Type == models.TransactionSell {
		withSale := models.Reduce(append(append([]*models.Transaction{}, history...), tx))
		withoutSale := models.Reduce(history)
		realized = withSale.RealizedGain - withoutSale.RealizedGain
	}

	if err := s.rebuildTicker(ctx, tx.Ticker); err != nil {
		return 0, err
	}

	s.logger.Info().
		Str("ticker", tx.Ticker).
		Str("type", string(tx.Type)).
		Float64("quantity", tx.Quantity).
		Float64("price", tx.Price).
		Msg("Transaction added")

	return realized, nil
}

// DeleteTransaction removes a transaction and rebuilds the ticker it
// touched.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := s.storage.TransactionStore().Get(ctx, id)
	if err != nil {
		return fmt.Errorf("transaction not found: %w", err)
	}

	if err := s.storage.TransactionStore().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	if err := s.rebuildTicker(ctx, tx.Ticker); err != nil {
		return err
	}

	s.logger.Info().Str("id", id).Str("ticker", tx.Ticker).Msg("Transaction deleted")
	return nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	return s.storage.TransactionStore().ListAll(ctx)
}

func (s *Service) ListHoldings(ctx context.Context) ([]*models.Holding, error) {
	return s.storage.HoldingStore().List(ctx)
}

// RebuildHoldings recomputes every ticker's holding from the full ledger.
func (s *Service) RebuildHoldings(ctx context.Context) error {
	all, err := s.storage.TransactionStore().ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	tickers := make(map[string]bool)
	for _, tx := range all {
		tickers[tx.Ticker] = true
	}

	for ticker := range tickers {
		if err := s.rebuildTicker(ctx, ticker); err != nil {
			return err
		}
	}

	s.logger.Info().Int("tickers", len(tickers)).Msg("Holdings rebuilt")
	return nil
}

// rebuildTicker re-reads the ticker's full history and replaces its
// holding. A reduced quantity ≤ 0 deletes the holding instead of storing a
// zero position.
func (s *Service) rebuildTicker(ctx context.Context, ticker string) error {
	history, err := s.storage.TransactionStore().ListByTicker(ctx, ticker)
	if err != nil {
		return fmt.Errorf("failed to read ticker history: %w", err)
	}

	pos := models.Reduce(history)
	if !pos.Open() {
		if err := s.storage.HoldingStore().Delete(ctx, ticker); err != nil {
			return fmt.Errorf("failed to remove holding: %w", err)
		}
		return nil
	}

	currency := "SEK"
	for _, tx := range history {
		if tx.Currency != "" {
			currency = tx.Currency
		}
	}

	holding := &models.Holding{
		Ticker:       ticker,
		Quantity:     pos.Quantity,
		AveragePrice: pos.AveragePrice(),
		Currency:     currency,
		UpdatedAt:    s.now(),
	}

	if err := s.storage.HoldingStore().Upsert(ctx, holding); err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

// Compile-time check
var _ interfaces.LedgerService = (*Service)(nil)
