package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/models"
	"github.com/foliotracker/folio/internal/storage/memory"
)

func newTestService() (*Service, *memory.Manager) {
	storage := memory.NewManager(common.NewSilentLogger())
	return NewService(storage, common.NewSilentLogger()), storage
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestAddTransaction_BuyCreatesHolding(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "aapl", Type: "buy", Quantity: 10, Price: 100, Currency: "USD", Date: day(1),
	})
	require.NoError(t, err)

	holdings, err := svc.ListHoldings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "AAPL", holdings[0].Ticker)
	assert.InDelta(t, 10, holdings[0].Quantity, 1e-9)
	assert.InDelta(t, 100, holdings[0].AveragePrice, 1e-9)
	assert.Equal(t, "USD", holdings[0].Currency)
}

func TestAddTransaction_SellReturnsRealizedGain(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "AAPL", Type: models.TransactionBuy, Quantity: 10, Price: 100, Date: day(1),
	})
	require.NoError(t, err)
	_, err = svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "AAPL", Type: models.TransactionBuy, Quantity: 10, Price: 120, Date: day(2),
	})
	require.NoError(t, err)

	realized, err := svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "AAPL", Type: models.TransactionSell, Quantity: 5, Price: 150, Date: day(3),
	})
	require.NoError(t, err)
	assert.InDelta(t, 200, realized, 1e-9) // 5 * (150 - 110)

	holdings, err := svc.ListHoldings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.InDelta(t, 15, holdings[0].Quantity, 1e-9)
	assert.InDelta(t, 110, holdings[0].AveragePrice, 1e-9)
}

func TestAddTransaction_RejectsOversell(t *testing.T) {
	svc, storage := newTestService()
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "AAPL", Type: models.TransactionBuy, Quantity: 5, Price: 100, Date: day(1),
	})
	require.NoError(t, err)

	_, err = svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "AAPL", Type: models.TransactionSell, Quantity: 6, Price: 120, Date: day(2),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrOversell))

	// Nothing was persisted.
	txs, err := storage.TransactionStore().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestAddTransaction_RejectsBackdatedOversell(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "AAPL", Type: models.TransactionBuy, Quantity: 10, Price: 100, Date: day(10),
	})
	require.NoError(t, err)

	// Total would stay positive but on day 5 nothing was held yet.
	_, err = svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "AAPL", Type: models.TransactionSell, Quantity: 1, Price: 120, Date: day(5),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrOversell))
}

func TestAddTransaction_RejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, &models.Transaction{
		Ticker: "AAPL", Type: models.TransactionBuy, Quantity: -1, Price: 100, Date: day(1),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestDeleteTransaction_RebuildsHolding(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tx1 := &models.Transaction{Ticker: "AAPL", Type: models.TransactionBuy, Quantity: 10, Price: 100, Date: day(1)}
	tx2 := &models.Transaction{Ticker: "AAPL", Type: models.TransactionBuy, Quantity: 10, Price: 200, Date: day(2)}

	_, err := svc.AddTransaction(ctx, tx1)
	require.NoError(t, err)
	_, err = svc.AddTransaction(ctx, tx2)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, tx2.ID))

	holdings, err := svc.ListHoldings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.InDelta(t, 10, holdings[0].Quantity, 1e-9)
	assert.InDelta(t, 100, holdings[0].AveragePrice, 1e-9)
}

func TestDeleteTransaction_LastTransactionRemovesHolding(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tx := &models.Transaction{Ticker: "AAPL", Type: models.TransactionBuy, Quantity: 10, Price: 100, Date: day(1)}
	_, err := svc.AddTransaction(ctx, tx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(ctx, tx.ID))

	holdings, err := svc.ListHoldings(ctx)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestDeleteTransaction_UnknownID(t *testing.T) {
	svc, _ := newTestService()
	err := svc.DeleteTransaction(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRebuildHoldings_ConvergesFromLedger(t *testing.T) {
	svc, storage := newTestService()
	ctx := context.Background()

	for _, tx := range []*models.Transaction{
		{Ticker: "AAPL", Type: models.TransactionBuy, Quantity: 10, Price: 100, Date: day(1)},
		{Ticker: "VOLV-B", Type: models.TransactionBuy, Quantity: 20, Price: 250, Date: day(1)},
		{Ticker: "AAPL", Type: models.TransactionSell, Quantity: 10, Price: 130, Date: day(2)},
	} {
		_, err := svc.AddTransaction(ctx, tx)
		require.NoError(t, err)
	}

	// Plant a stale holding that should be removed by the rebuild.
	require.NoError(t, storage.HoldingStore().Upsert(ctx, &models.Holding{Ticker: "AAPL", Quantity: 99}))

	require.NoError(t, svc.RebuildHoldings(ctx))

	holdings, err := svc.ListHoldings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "VOLV-B", holdings[0].Ticker)
}

func TestAddTransaction_DefaultsCurrency(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tx := &models.Transaction{Ticker: "TELIA", Type: models.TransactionBuy, Quantity: 100, Price: 28.5, Date: day(1)}
	_, err := svc.AddTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "SEK", tx.Currency)
}
