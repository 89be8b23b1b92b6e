package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"garagedesk/internal/domain"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
)

// PaymentSummary are the stat cards above the transactions table.
type PaymentSummary struct {
	TotalIncome  float64
	PaidTotal    float64
	PendingTotal float64
	PaidCount    int
	PendingCount int
}

// PaymentService reads the payments feed and derives the filtered table and
// income summary from it.
type PaymentService struct {
	api    domain.FinanceAPI
	logger zerolog.Logger
}

func NewPaymentService(api domain.FinanceAPI, logger zerolog.Logger) *PaymentService {
	return &PaymentService{api: api, logger: logger}
}

func (s *PaymentService) Transactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.api.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

// FilterTransactions applies the free-text search (customer, description,
// booking id) and the status dropdown. status "all" or "" disables the
// status filter. Pure; input order is preserved.
func FilterTransactions(txs []models.Transaction, term, status string) []models.Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if status != "" && status != "all" && tx.PaymentStatus != status {
			continue
		}
		if term != "" && !transactionMatches(tx, term) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func transactionMatches(tx models.Transaction, term string) bool {
	if strings.Contains(strings.ToLower(tx.Customer), term) {
		return true
	}
	if strings.Contains(strings.ToLower(tx.Description), term) {
		return true
	}
	return strings.Contains(strconv.FormatInt(tx.BookingID, 10), term)
}

// Summarize totals the feed. Amounts may carry currency symbols or grouping
// commas; unparseable amounts count as zero rather than failing the page.
func Summarize(txs []models.Transaction) PaymentSummary {
	var sum PaymentSummary
	for _, tx := range txs {
		amount := ParseAmount(tx.Amount)
		sum.TotalIncome += amount
		switch tx.PaymentStatus {
		case "paid":
			sum.PaidTotal += amount
			sum.PaidCount++
		case "pending":
			sum.PendingTotal += amount
			sum.PendingCount++
		}
	}
	return sum
}

// ParseAmount strips currency symbols and separators from an amount string.
func ParseAmount(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '₪', '$', ',', ' ':
			return -1
		}
		return r
	}, raw)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}
