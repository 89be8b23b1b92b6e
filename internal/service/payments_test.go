package service

import (
	"context"
	"testing"

	"garagedesk/internal/api"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFinanceAPI struct {
	mock.Mock
}

func (m *mockFinanceAPI) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockFinanceAPI) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func testTransactions() []models.Transaction {
	return []models.Transaction{
		{ID: 1, BookingID: 9, Customer: "John Doe", Description: "Oil Change", Amount: "₪1,200.50", PaymentStatus: "paid", Date: "2025-03-01"},
		{ID: 2, BookingID: 10, Customer: "Dana Levi", Description: "Brake Inspection", Amount: "$80", PaymentStatus: "pending", Date: "2025-03-02"},
		{ID: 3, BookingID: 11, Customer: "Avi Cohen", Description: "Tire Rotation", Amount: "150", PaymentStatus: "paid", Date: "2025-03-03"},
	}
}

func TestTransactionsPropagatesFailure(t *testing.T) {
	fapi := new(mockFinanceAPI)
	fapi.On("ListTransactions", mock.Anything).Return(nil, api.ErrUnavailable).Once()

	svc := NewPaymentService(fapi, zerolog.Nop())
	_, err := svc.Transactions(context.Background())
	require.ErrorIs(t, err, api.ErrUnavailable)
}

func TestFilterTransactions(t *testing.T) {
	txs := testTransactions()

	ids := func(out []models.Transaction) []int64 {
		got := make([]int64, 0, len(out))
		for _, tx := range out {
			got = append(got, tx.ID)
		}
		return got
	}

	assert.Equal(t, []int64{1, 2, 3}, ids(FilterTransactions(txs, "", "")))
	assert.Equal(t, []int64{1, 2, 3}, ids(FilterTransactions(txs, "", "all")))
	assert.Equal(t, []int64{1, 3}, ids(FilterTransactions(txs, "", "paid")))
	assert.Equal(t, []int64{2}, ids(FilterTransactions(txs, "brake", "")))
	assert.Equal(t, []int64{1}, ids(FilterTransactions(txs, "  JOHN ", "")))
	assert.Equal(t, []int64{2, 3}, ids(FilterTransactions(txs, "1", "")), "matches booking ids 10 and 11")
	assert.Empty(t, FilterTransactions(txs, "dana", "paid"), "term and status must both hold")
}

func TestSummarize(t *testing.T) {
	sum := Summarize(testTransactions())

	assert.InDelta(t, 1430.50, sum.TotalIncome, 0.001)
	assert.InDelta(t, 1350.50, sum.PaidTotal, 0.001)
	assert.InDelta(t, 80, sum.PendingTotal, 0.001)
	assert.Equal(t, 2, sum.PaidCount)
	assert.Equal(t, 1, sum.PendingCount)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"₪1,200.50", 1200.50},
		{"$80", 80},
		{"150", 150},
		{"1 500", 1500},
		{"free", 0},
		{"", 0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, ParseAmount(tc.raw), 0.001, tc.raw)
	}
}
