package ledger

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/foliotracker/folio/internal/models"
)

// maxNoteText bounds how much text is extracted from a contract note.
const maxNoteText = 50000

// ImportContractNote parses a broker contract-note PDF and adds every trade
// line it contains through the normal AddTransaction path, so validation
// and holdings rebuilds apply to imported trades too.
func (s *Service) ImportContractNote(ctx context.Context, pdfData []byte) ([]*models.Transaction, error) {
	text, err := extractPDFText(pdfData)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable PDF: %v", models.ErrValidation, err)
	}

	parsed := parseTradeLines(text)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: no trade lines found in contract note", models.ErrValidation)
	}

	added := make([]*models.Transaction, 0, len(parsed))
	for _, tx := range parsed {
		if _, err := s.AddTransaction(ctx, tx); err != nil {
			return added, fmt.Errorf("line %s %s: %w", tx.Type, tx.Ticker, err)
		}
		added = append(added, tx)
	}

	s.logger.Info().Int("transactions", len(added)).Msg("Contract note imported")
	return added, nil
}

// extractPDFText extracts plain text from a PDF document.
func extractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	totalPages := r.NumPage()

	for i := 1; i <= totalPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")

		if sb.Len() > maxNoteText {
			break
		}
	}

	result := sb.String()
	if len(result) > maxNoteText {
		result = result[:maxNoteText]
	}

	return result, nil
}

// parseTradeLines scans contract-note text for trade lines of the form
//
//	BUY 10 AAPL @ 182.50 USD 2024-03-01
//	SELL 5 VOLV-B @ 265 SEK 2024-03-02
//
// The currency is optional (defaults to SEK); anything else is ignored.
func parseTradeLines(text string) []*models.Transaction {
	var out []*models.Transaction

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		txType := models.TransactionType(strings.ToUpper(fields[0]))
		if txType != models.TransactionBuy && txType != models.TransactionSell {
			continue
		}

		quantity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		ticker := strings.ToUpper(fields[2])

		// Accept both "@ 182.50" and "@182.50".
		var priceField string
		var rest []string
		switch {
		case fields[3] == "@" && len(fields) > 4:
			priceField = fields[4]
			rest = fields[5:]
		case strings.HasPrefix(fields[3], "@"):
			priceField = strings.TrimPrefix(fields[3], "@")
			rest = fields[4:]
		default:
			continue
		}

		price, err := strconv.ParseFloat(priceField, 64)
		if err != nil {
			continue
		}

		currency := "SEK"
		if len(rest) > 0 && len(rest[0]) == 3 && isAlpha(rest[0]) {
			currency = strings.ToUpper(rest[0])
			rest = rest[1:]
		}

		date := time.Now().UTC().Truncate(24 * time.Hour)
		if len(rest) > 0 {
			if d, err := time.Parse("2006-01-02", rest[0]); err == nil {
				date = d
			}
		}

		out = append(out, &models.Transaction{
			Ticker:   ticker,
			Type:     txType,
			Quantity: quantity,
			Price:    price,
			Currency: currency,
			Date:     date,
		})
	}

	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}
