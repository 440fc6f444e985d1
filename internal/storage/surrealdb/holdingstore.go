package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/models"
)

// HoldingStore keys holdings by ticker, so upserts on the same ticker
// overwrite in place.
type HoldingStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewHoldingStore(db *surrealdb.DB, logger *common.Logger) *HoldingStore {
	return &HoldingStore{
		db:     db,
		logger: logger,
	}
}

func (s *HoldingStore) Upsert(ctx context.Context, holding *models.Holding) error {
	sql := "UPSERT $rid CONTENT $holding"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("holdings", holding.Ticker), "holding": holding}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Holding](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to upsert holding after retries: %w", lastErr)
}

func (s *HoldingStore) Get(ctx context.Context, ticker string) (*models.Holding, error) {
	holding, err := surrealdb.Select[models.Holding](ctx, s.db, surrealmodels.NewRecordID("holdings", ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to select holding: %w", err)
	}
	if holding == nil || holding.Ticker == "" {
		return nil, fmt.Errorf("holding %s not found", ticker)
	}
	return holding, nil
}

func (s *HoldingStore) Delete(ctx context.Context, ticker string) error {
	_, err := surrealdb.Delete[models.Holding](ctx, s.db, surrealmodels.NewRecordID("holdings", ticker))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

func (s *HoldingStore) List(ctx context.Context) ([]*models.Holding, error) {
	sql := "SELECT * FROM holdings ORDER BY ticker ASC"

	results, err := surrealdb.Query[[]models.Holding](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	return collect(results), nil
}
