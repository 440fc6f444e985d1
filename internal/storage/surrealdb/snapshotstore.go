package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/models"
)

// SnapshotStore keys snapshots by calendar date, so saving twice on one
// date overwrites the earlier row.
type SnapshotStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewSnapshotStore(db *surrealdb.DB, logger *common.Logger) *SnapshotStore {
	return &SnapshotStore{
		db:     db,
		logger: logger,
	}
}

func (s *SnapshotStore) Upsert(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	sql := "UPSERT $rid CONTENT $snapshot"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("portfolio_history", snapshot.Date), "snapshot": snapshot}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.PortfolioSnapshot](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to upsert snapshot after retries: %w", lastErr)
}

func (s *SnapshotStore) List(ctx context.Context, days int) ([]*models.PortfolioSnapshot, error) {
	sql := "SELECT * FROM portfolio_history"
	vars := map[string]any{}

	if days > 0 {
		sql += " WHERE date >= $cutoff"
		vars["cutoff"] = time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	}
	sql += " ORDER BY date DESC"

	results, err := surrealdb.Query[[]models.PortfolioSnapshot](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	return collect(results), nil
}
