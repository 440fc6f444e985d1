package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foliotracker/folio/internal/models"
)

type transactionRequest struct {
	Ticker   string  `json:"ticker"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Date     string  `json:"date"`
}

type transactionResponse struct {
	Transaction  *models.Transaction `json:"transaction"`
	RealizedGain float64             `json:"realized_gain,omitempty"`
}

// parseTransactionDate accepts both date-only and RFC3339 timestamps.
func parseTransactionDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// handleTransactions handles GET and POST /api/transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleTransactionList(w, r)
	case http.MethodPost:
		s.handleTransactionCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.app.LedgerService.ListTransactions(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list transactions")
		WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	WriteJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if req.Date == "" {
		WriteError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := parseTransactionDate(req.Date)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD or RFC3339")
		return
	}

	tx := &models.Transaction{
		Ticker:   req.Ticker,
		Type:     models.TransactionType(strings.ToUpper(req.Type)),
		Quantity: req.Quantity,
		Price:    req.Price,
		Currency: req.Currency,
		Date:     date,
	}

	realized, err := s.app.LedgerService.AddTransaction(r.Context(), tx)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOversell):
			WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), "oversell")
		case errors.Is(err, models.ErrValidation):
			WriteError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error().Err(err).Msg("Failed to add transaction")
			WriteError(w, http.StatusInternalServerError, "Failed to add transaction")
		}
		return
	}

	resp := transactionResponse{Transaction: tx}
	if tx.Type == models.TransactionSell {
		resp.RealizedGain = realized
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// handleTransactionByID handles DELETE /api/transactions/{id}.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	id := PathParam(r, "/api/transactions/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "transaction id is required in path")
		return
	}

	if err := s.app.LedgerService.DeleteTransaction(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to delete transaction")
		WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// handleTransactionImport handles POST /api/transactions/import. The body
// is a contract-note PDF, either raw or as the "file" part of a multipart
// form.
func (s *Server) handleTransactionImport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	pdfData, err := readImportBody(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.app.LedgerService.ImportContractNote(r.Context(), pdfData)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOversell):
			WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), "oversell")
		case errors.Is(err, models.ErrValidation):
			WriteError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error().Err(err).Msg("Contract note import failed")
			WriteError(w, http.StatusBadRequest, "Failed to import contract note: "+err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"imported":     len(added),
		"transactions": added,
	})
}

const maxImportSize = 10 << 20 // 10MB

func readImportBody(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			return nil, errors.New("invalid multipart form: " + err.Error())
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("multipart form must contain a \"file\" part")
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, maxImportSize))
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	if len(data) == 0 {
		return nil, errors.New("request body is required")
	}
	return data, nil
}
