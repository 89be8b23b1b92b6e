package report

import (
	"sort"
	"strings"
	"time"

	"garagedesk/internal/models"
	"garagedesk/internal/service"
)

// earningsRate is the workshop's share of a billed amount after the
// marketplace commission.
const earningsRate = 0.85

// MonthlySeries folds paid transactions into a month-by-month revenue and
// earnings series, oldest month first. Transaction dates use the booking
// date layout; rows with broken dates are skipped.
func MonthlySeries(txs []models.Transaction) []models.MonthlyRevenue {
	byMonth := make(map[string]float64)
	for _, tx := range txs {
		if tx.PaymentStatus != "paid" {
			continue
		}
		parsed, err := time.Parse(models.DateLayout, tx.Date)
		if err != nil {
			continue
		}
		byMonth[parsed.Format("2006-01")] += service.ParseAmount(tx.Amount)
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	series := make([]models.MonthlyRevenue, 0, len(months))
	for _, month := range months {
		revenue := byMonth[month]
		series = append(series, models.MonthlyRevenue{
			Month:    month,
			Revenue:  revenue,
			Earnings: revenue * earningsRate,
		})
	}
	return series
}

// TopServices ranks service lines by billed volume across the invoices,
// highest first, at most limit rows. Line names are matched case-insensitively.
func TopServices(invoices []models.Invoice, limit int) []models.ServiceShare {
	totals := make(map[string]*models.ServiceShare)
	for _, inv := range invoices {
		for _, line := range inv.Services {
			key := strings.ToLower(strings.TrimSpace(line.Name))
			if key == "" {
				continue
			}
			share, ok := totals[key]
			if !ok {
				share = &models.ServiceShare{Service: strings.TrimSpace(line.Name)}
				totals[key] = share
			}
			share.Count++
			share.Revenue += line.Price
		}
	}

	ranked := make([]models.ServiceShare, 0, len(totals))
	for _, share := range totals {
		ranked = append(ranked, *share)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].Service < ranked[j].Service
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
