package service

import (
	"context"
	"fmt"
	"strings"

	"garagedesk/internal/domain"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
)

// InvoiceTotals breaks billed amounts down by invoice status.
type InvoiceTotals struct {
	Total   float64
	Paid    float64
	Pending float64
	Overdue float64
}

// InvoiceService reads the invoices feed and derives filters and totals.
type InvoiceService struct {
	api    domain.FinanceAPI
	logger zerolog.Logger
}

func NewInvoiceService(api domain.FinanceAPI, logger zerolog.Logger) *InvoiceService {
	return &InvoiceService{api: api, logger: logger}
}

func (s *InvoiceService) Invoices(ctx context.Context) ([]models.Invoice, error) {
	invoices, err := s.api.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	for _, inv := range invoices {
		// The backend's amount should match the line items; log the drift
		// instead of hiding it, since it means a billing bug somewhere.
		if len(inv.Services) > 0 && !amountsClose(inv.Amount, inv.LineTotal()) {
			s.logger.Warn().Str("invoice", inv.ID).
				Float64("amount", inv.Amount).
				Float64("line_total", inv.LineTotal()).
				Msg("invoice amount does not match line items")
		}
	}
	return invoices, nil
}

func amountsClose(a, b float64) bool {
	diff := a - b
	return diff < 0.01 && diff > -0.01
}

// FilterInvoices applies the status dropdown and the free-text search over
// invoice id and customer. Pure; input order is preserved.
func FilterInvoices(invoices []models.Invoice, term, status string) []models.Invoice {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if status != "" && status != "all" && inv.Status != status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(inv.ID), term) &&
			!strings.Contains(strings.ToLower(inv.Customer), term) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// TotalInvoices sums billed amounts by status.
func TotalInvoices(invoices []models.Invoice) InvoiceTotals {
	var totals InvoiceTotals
	for _, inv := range invoices {
		totals.Total += inv.Amount
		switch inv.Status {
		case models.InvoicePaid:
			totals.Paid += inv.Amount
		case models.InvoicePending:
			totals.Pending += inv.Amount
		case models.InvoiceOverdue:
			totals.Overdue += inv.Amount
		}
	}
	return totals
}
