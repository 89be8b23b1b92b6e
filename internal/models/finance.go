package models

const (
	InvoicePaid    = "paid"
	InvoicePending = "pending"
	InvoiceOverdue = "overdue"
)

// InvoiceLine is one service row on an invoice.
type InvoiceLine struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Invoice is a billed visit. Amount is the backend's figure; LineTotal lets
// the desk cross-check it against the rows.
type Invoice struct {
	ID       string        `json:"id"`
	Customer string        `json:"customer"`
	Vehicle  string        `json:"vehicle"`
	Date     string        `json:"date"`
	Status   string        `json:"status"` // paid, pending, overdue
	Amount   float64       `json:"amount"`
	Services []InvoiceLine `json:"services"`
}

// LineTotal sums the invoice rows.
func (i *Invoice) LineTotal() float64 {
	var total float64
	for _, line := range i.Services {
		total += line.Price
	}
	return total
}

// Transaction is one payment record from the payments feed. Amount arrives as
// a string and may carry currency symbols; PaymentService normalizes it.
type Transaction struct {
	ID            int64  `json:"id"`
	BookingID     int64  `json:"booking_id"`
	Customer      string `json:"customer"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	PaymentStatus string `json:"payment_status"` // paid, pending, failed
	Date          string `json:"date"`
}

// MonthlyRevenue is one point of the financial report series.
type MonthlyRevenue struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Earnings float64 `json:"earnings"`
}

// ServiceShare is a report slice: how much one service contributed.
type ServiceShare struct {
	Service string  `json:"service"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}
