// Package memory provides an in-process StorageManager used for
// development and tests. All data is lost on shutdown.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/interfaces"
	"github.com/foliotracker/folio/internal/models"
)

// Manager implements interfaces.StorageManager with in-memory maps.
type Manager struct {
	transactions *TransactionStore
	holdings     *HoldingStore
	snapshots    *SnapshotStore
}

// NewManager creates an empty in-memory storage manager.
func NewManager(logger *common.Logger) *Manager {
	logger.Info().Msg("In-memory storage manager initialized")
	return &Manager{
		transactions: &TransactionStore{byID: make(map[string]*models.Transaction)},
		holdings:     &HoldingStore{byTicker: make(map[string]*models.Holding)},
		snapshots:    &SnapshotStore{byDate: make(map[string]*models.PortfolioSnapshot)},
	}
}

func (m *Manager) TransactionStore() interfaces.TransactionStore { return m.transactions }
func (m *Manager) HoldingStore() interfaces.HoldingStore         { return m.holdings }
func (m *Manager) SnapshotStore() interfaces.SnapshotStore       { return m.snapshots }

func (m *Manager) Close() error { return nil }

// TransactionStore keeps transactions keyed by ID.
type TransactionStore struct {
	mu   sync.RWMutex
	byID map[string]*models.Transaction
}

func (s *TransactionStore) Insert(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[tx.ID]; exists {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	cp := *tx
	s.byID[tx.ID] = &cp
	return nil
}

func (s *TransactionStore) Get(_ context.Context, id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s not found", id)
	}
	cp := *tx
	return &cp, nil
}

func (s *TransactionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("transaction %s not found", id)
	}
	delete(s.byID, id)
	return nil
}

func (s *TransactionStore) ListByTicker(_ context.Context, ticker string) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Transaction
	for _, tx := range s.byID {
		if tx.Ticker == ticker {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *TransactionStore) ListAll(_ context.Context) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Transaction, 0, len(s.byID))
	for _, tx := range s.byID {
		cp := *tx
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// HoldingStore keeps holdings keyed by ticker.
type HoldingStore struct {
	mu       sync.RWMutex
	byTicker map[string]*models.Holding
}

func (s *HoldingStore) Upsert(_ context.Context, holding *models.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *holding
	s.byTicker[holding.Ticker] = &cp
	return nil
}

func (s *HoldingStore) Get(_ context.Context, ticker string) (*models.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byTicker[ticker]
	if !ok {
		return nil, fmt.Errorf("holding %s not found", ticker)
	}
	cp := *h
	return &cp, nil
}

func (s *HoldingStore) Delete(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byTicker, ticker)
	return nil
}

func (s *HoldingStore) List(_ context.Context) ([]*models.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Holding, 0, len(s.byTicker))
	for _, h := range s.byTicker {
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

// SnapshotStore keeps snapshots keyed by calendar date.
type SnapshotStore struct {
	mu     sync.RWMutex
	byDate map[string]*models.PortfolioSnapshot
}

func (s *SnapshotStore) Upsert(_ context.Context, snapshot *models.PortfolioSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snapshot
	s.byDate[snapshot.Date] = &cp
	return nil
}

func (s *SnapshotStore) List(_ context.Context, days int) ([]*models.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cutoff string
	if days > 0 {
		cutoff = time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	}

	out := make([]*models.PortfolioSnapshot, 0, len(s.byDate))
	for _, snap := range s.byDate {
		if cutoff != "" && snap.Date < cutoff {
			continue
		}
		cp := *snap
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
