package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"garagedesk/internal/models"
	"garagedesk/internal/service"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter writes the financial report workbook the mechanic downloads from
// the reports page.
type Exporter struct {
	dir    string
	logger zerolog.Logger
}

func NewExporter(dir string, logger zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// Export builds an .xlsx with a payments sheet, a monthly series sheet and a
// top-services sheet, and returns the file path.
func (e *Exporter) Export(txs []models.Transaction, invoices []models.Invoice) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writePayments(f, txs); err != nil {
		return "", err
	}
	if err := e.writeMonthly(f, MonthlySeries(txs)); err != nil {
		return "", err
	}
	if err := e.writeTopServices(f, TopServices(invoices, 10)); err != nil {
		return "", err
	}
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("financial_report_%s.xlsx", time.Now().Format("2006-01-02"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("financial report exported")
	return filePath, nil
}

func (e *Exporter) writePayments(f *excelize.File, txs []models.Transaction) error {
	const sheet = "Payments"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create payments sheet: %w", err)
	}
	f.SetActiveSheet(index)

	writeHeader(f, sheet, []string{"Booking", "Customer", "Description", "Amount", "Status", "Date"})
	for i, tx := range txs {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(sheet, cell, &[]interface{}{
			tx.BookingID, tx.Customer, tx.Description,
			service.ParseAmount(tx.Amount), tx.PaymentStatus, tx.Date,
		})
	}

	sum := service.Summarize(txs)
	totalRow := len(txs) + 3
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	_ = f.SetSheetRow(sheet, cell, &[]interface{}{"Total income", "", "", sum.TotalIncome})

	_ = f.SetColWidth(sheet, "B", "C", 25)
	return nil
}

func (e *Exporter) writeMonthly(f *excelize.File, series []models.MonthlyRevenue) error {
	const sheet = "Monthly"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create monthly sheet: %w", err)
	}

	writeHeader(f, sheet, []string{"Month", "Revenue", "Earnings"})
	for i, point := range series {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(sheet, cell, &[]interface{}{point.Month, point.Revenue, point.Earnings})
	}
	return nil
}

func (e *Exporter) writeTopServices(f *excelize.File, shares []models.ServiceShare) error {
	const sheet = "Top Services"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create top services sheet: %w", err)
	}

	writeHeader(f, sheet, []string{"Service", "Jobs", "Revenue"})
	for i, share := range shares {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(sheet, cell, &[]interface{}{share.Service, share.Count, share.Revenue})
	}
	_ = f.SetColWidth(sheet, "A", "A", 25)
	return nil
}

func writeHeader(f *excelize.File, sheet string, titles []string) {
	_ = f.SetSheetRow(sheet, "A1", &titles)
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	last, _ := excelize.CoordinatesToCellName(len(titles), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
}
