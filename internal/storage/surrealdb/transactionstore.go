package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/models"
)

type TransactionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewTransactionStore(db *surrealdb.DB, logger *common.Logger) *TransactionStore {
	return &TransactionStore{
		db:     db,
		logger: logger,
	}
}

func (s *TransactionStore) Insert(ctx context.Context, tx *models.Transaction) error {
	sql := "UPSERT $rid CONTENT $tx"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("transactions", tx.ID), "tx": tx}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Transaction](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to insert transaction after retries: %w", lastErr)
}

func (s *TransactionStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := surrealdb.Select[models.Transaction](ctx, s.db, surrealmodels.NewRecordID("transactions", id))
	if err != nil {
		return nil, fmt.Errorf("failed to select transaction: %w", err)
	}
	if tx == nil || tx.ID == "" {
		return nil, fmt.Errorf("transaction %s not found", id)
	}
	return tx, nil
}

func (s *TransactionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	_, err := surrealdb.Delete[models.Transaction](ctx, s.db, surrealmodels.NewRecordID("transactions", id))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (s *TransactionStore) ListByTicker(ctx context.Context, ticker string) ([]*models.Transaction, error) {
	sql := "SELECT * FROM transactions WHERE ticker = $ticker"
	vars := map[string]any{"ticker": ticker}

	results, err := surrealdb.Query[[]models.Transaction](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return collect(results), nil
}

func (s *TransactionStore) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	sql := "SELECT * FROM transactions ORDER BY date DESC"

	results, err := surrealdb.Query[[]models.Transaction](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return collect(results), nil
}

// collect maps a typed query result to a pointer slice.
func collect[T any](results *[]surrealdb.QueryResult[[]T]) []*T {
	if results == nil || len(*results) == 0 {
		return nil
	}
	var mapped []*T
	for i := range (*results)[0].Result {
		mapped = append(mapped, &(*results)[0].Result[i])
	}
	return mapped
}
