package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/foliotracker/folio/internal/app"
	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/interfaces"
	"github.com/foliotracker/folio/internal/models"
	"github.com/foliotracker/folio/internal/services/ledger"
	"github.com/foliotracker/folio/internal/services/valuation"
	"github.com/foliotracker/folio/internal/storage/memory"
)

const testPassword = "correct horse battery staple"

// stubPrices returns fixed SEK quotes for any requested ticker.
type stubPrices struct{}

func (stubPrices) GetQuotes(_ context.Context, tickers []string) (map[string]*models.Quote, []models.ExchangeRate) {
	out := make(map[string]*models.Quote, len(tickers))
	for _, ticker := range tickers {
		out[ticker] = &models.Quote{Ticker: ticker, Current: 100, Currency: "SEK", FetchedAt: time.Now()}
	}
	return out, nil
}

func (stubPrices) ExchangeRates(_ context.Context) []models.ExchangeRate {
	return []models.ExchangeRate{{From: "USD", To: "SEK", Rate: 10.5, Source: models.RateSourceFallback, AsOf: time.Now()}}
}

func newTestServer(t *testing.T) (*Server, interfaces.StorageManager) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := common.NewDefaultConfig()
	cfg.Auth.PasswordHash = string(hash)
	cfg.Auth.JWTSecret = "test-secret"

	logger := common.NewSilentLogger()
	storage := memory.NewManager(logger)
	ledgerSvc := ledger.NewService(storage, logger)
	prices := stubPrices{}
	valuationSvc := valuation.NewService(ledgerSvc, prices, storage.SnapshotStore(), nil, "SEK", logger)

	a := &app.App{
		Config:           cfg,
		Logger:           logger,
		Storage:          storage,
		LedgerService:    ledgerSvc,
		PriceService:     prices,
		ValuationService: valuationSvc,
		StartupTime:      time.Now(),
	}

	return NewServer(a), storage
}

// login performs the login flow and returns the session cookie.
func login(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"password": testPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("login response did not set a token cookie")
	return nil
}

func doJSON(handler http.Handler, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPublicEndpointsNeedNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{"/api/health", "/api/version", "/api/auth/status"} {
		rec := doJSON(h, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code, "GET %s", path)
	}
}

func TestProtectedEndpointsRejectAnonymous(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(h, http.MethodGet, "/api/transactions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(h, http.MethodGet, "/api/valuation", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(h, http.MethodPost, "/api/login", map[string]string{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := login(t, h)
	assert.True(t, cookie.HttpOnly)

	// Bearer auth works with the same token.
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	bearer := httptest.NewRecorder()
	h.ServeHTTP(bearer, req)
	assert.Equal(t, http.StatusOK, bearer.Code)

	// Garbage token is rejected.
	rec = doJSON(h, http.MethodGet, "/api/transactions", nil, &http.Cookie{Name: "token", Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(h, http.MethodGet, "/api/auth/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	cookie := login(t, h)
	rec = doJSON(h, http.MethodGet, "/api/auth/status", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestTransactionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	// Create a buy.
	rec := doJSON(h, http.MethodPost, "/api/transactions", map[string]interface{}{
		"ticker": "AAPL", "type": "buy", "quantity": 10, "price": 150.0,
		"currency": "USD", "date": "2024-01-02",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created transactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Transaction)
	assert.NotEmpty(t, created.Transaction.ID)
	assert.Equal(t, "AAPL", created.Transaction.Ticker)

	// Sell part of it; realized gain comes back.
	rec = doJSON(h, http.MethodPost, "/api/transactions", map[string]interface{}{
		"ticker": "AAPL", "type": "SELL", "quantity": 4, "price": 170.0,
		"currency": "USD", "date": "2024-02-01",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sold transactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sold))
	assert.InDelta(t, 80, sold.RealizedGain, 1e-9) // 4 * (170 - 150)

	// List shows both.
	rec = doJSON(h, http.MethodGet, "/api/transactions", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []*models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)

	// Holdings reflect the net position.
	rec = doJSON(h, http.MethodGet, "/api/holdings", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var holdings []*models.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &holdings))
	require.Len(t, holdings, 1)
	assert.InDelta(t, 6, holdings[0].Quantity, 1e-9)

	// Delete the sell; the holding grows back.
	rec = doJSON(h, http.MethodDelete, "/api/transactions/"+sold.Transaction.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(h, http.MethodGet, "/api/holdings", nil, cookie)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &holdings))
	require.Len(t, holdings, 1)
	assert.InDelta(t, 10, holdings[0].Quantity, 1e-9)
}

func TestTransactionValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"missing date", map[string]interface{}{"ticker": "AAPL", "type": "BUY", "quantity": 1, "price": 1}, http.StatusBadRequest},
		{"bad date", map[string]interface{}{"ticker": "AAPL", "type": "BUY", "quantity": 1, "price": 1, "date": "01/02/2024"}, http.StatusBadRequest},
		{"negative quantity", map[string]interface{}{"ticker": "AAPL", "type": "BUY", "quantity": -1, "price": 1, "date": "2024-01-02"}, http.StatusBadRequest},
		{"bad type", map[string]interface{}{"ticker": "AAPL", "type": "HOLD", "quantity": 1, "price": 1, "date": "2024-01-02"}, http.StatusBadRequest},
		{"oversell", map[string]interface{}{"ticker": "NEW", "type": "SELL", "quantity": 1, "price": 1, "date": "2024-01-02"}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(h, http.MethodPost, "/api/transactions", tt.body, cookie)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestDeleteTransaction_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	rec := doJSON(h, http.MethodDelete, "/api/transactions/missing-id", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrices(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	rec := doJSON(h, http.MethodGet, "/api/prices/AAPL,VOLV-B", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Quotes map[string]*models.Quote `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Quotes, 2)

	rec = doJSON(h, http.MethodGet, "/api/prices/", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExchangeRates(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	rec := doJSON(h, http.MethodGet, "/api/exchange-rates", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var rates []models.ExchangeRate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rates))
	require.Len(t, rates, 1)
	assert.Equal(t, "USD", rates[0].From)
}

func TestValuationEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	rec := doJSON(h, http.MethodPost, "/api/transactions", map[string]interface{}{
		"ticker": "AAPL", "type": "BUY", "quantity": 10, "price": 90.0, "date": "2024-01-02",
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(h, http.MethodGet, "/api/valuation", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var v models.Valuation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.InDelta(t, 1000, v.TotalValue, 1e-6) // stub quote at 100
	assert.InDelta(t, 900, v.TotalCost, 1e-6)
	require.Len(t, v.Holdings, 1)
}

func TestValuationInsights_Unavailable(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	rec := doJSON(h, http.MethodGet, "/api/valuation/insights", nil, cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	srv, storage := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	rec := doJSON(h, http.MethodPost, "/api/portfolio-history/save", nil, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(h, http.MethodGet, "/api/portfolio-history?days=7", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var snaps []*models.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	assert.Len(t, snaps, 1)

	rec = doJSON(h, http.MethodGet, "/api/portfolio-history?days=zero", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// One snapshot is not enough to chart.
	rec = doJSON(h, http.MethodGet, "/api/portfolio-history/chart", nil, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Seed a second day and render.
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	require.NoError(t, storage.SnapshotStore().Upsert(context.Background(), &models.PortfolioSnapshot{
		Date: yesterday, TotalValue: 5000, TotalCost: 4500,
	}))

	rec = doJSON(h, http.MethodGet, "/api/portfolio-history/chart?days=30", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf("%d", rec.Body.Len()), rec.Header().Get("Content-Length"))
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	cookie := login(t, h)

	rec := doJSON(h, http.MethodPut, "/api/transactions", nil, cookie)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doJSON(h, http.MethodGet, "/api/login", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(h, http.MethodGet, "/api/health", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "my-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "my-id", rec.Header().Get("X-Correlation-ID"))
}
