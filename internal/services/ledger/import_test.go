package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotracker/folio/internal/models"
)

func TestParseTradeLines(t *testing.T) {
	text := `Contract note 2024-03-01
Some broker preamble text

BUY 10 AAPL @ 182.50 USD 2024-03-01
SELL 5 VOLV-B @265 SEK 2024-03-02
buy 100 telia @ 28.5

Settlement details follow
HOLD 5 AAPL @ 100
BUY ten AAPL @ 182.50
BUY 10 AAPL 182.50
`

	parsed := parseTradeLines(text)
	require.Len(t, parsed, 3)

	assert.Equal(t, &models.Transaction{
		Ticker:   "AAPL",
		Type:     models.TransactionBuy,
		Quantity: 10,
		Price:    182.50,
		Currency: "USD",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, parsed[0])

	assert.Equal(t, "VOLV-B", parsed[1].Ticker)
	assert.Equal(t, models.TransactionSell, parsed[1].Type)
	assert.InDelta(t, 265, parsed[1].Price, 1e-9)
	assert.Equal(t, "SEK", parsed[1].Currency)

	// Currency and date both optional.
	assert.Equal(t, "TELIA", parsed[2].Ticker)
	assert.Equal(t, "SEK", parsed[2].Currency)
	assert.False(t, parsed[2].Date.IsZero())
}

func TestParseTradeLines_Empty(t *testing.T) {
	assert.Empty(t, parseTradeLines(""))
	assert.Empty(t, parseTradeLines("no trades here\njust text"))
}

func TestImportContractNote_RejectsGarbage(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ImportContractNote(context.Background(), []byte("not a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}
