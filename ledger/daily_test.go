package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/shop_ledger/ledger"
)

var kolkata = time.FixedZone("IST", 5*3600+1800)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, kolkata)
}

func TestComputeDailySummary_Scenario(t *testing.T) {
	orders := []ledger.Sale{
		{ID: 1, Total: dec("800"), PaidAmount: dec("800"), PaymentStatus: ledger.PaymentStatusPaid, Date: at(10, 0)},
		{ID: 2, Total: dec("300"), PaidAmount: dec("0"), PaymentStatus: ledger.PaymentStatusUnpaid, Date: at(11, 0)},
	}
	payments := []ledger.Payment{
		{ID: 1, PartyType: ledger.PartyTypeCustomer, PartyId: intPtr(4), Amount: dec("150"), ReferenceType: ledger.ReferenceTypeAdvance, Date: at(12, 0)},
	}

	s, err := ledger.ComputeDailySummary("2026-03-14", orders, payments, dec("2000"), ledger.WithLocation(kolkata))
	if err != nil {
		t.Fatalf("ComputeDailySummary: %v", err)
	}
	checks := []struct {
		name     string
		got      string
		expected string
	}{
		{"cashSales", s.CashSales.Amount.String(), "800"},
		{"creditSales", s.CreditSales.Amount.String(), "300"},
		{"customerReceipts", s.CustomerReceipts.Amount.String(), "150"},
		{"totalBusinessDone", s.TotalBusinessDone.Amount.String(), "1100"},
		{"expectedCash", s.ExpectedCash.String(), "2950"},
		{"netCashFlowToday", s.NetCashFlowToday.String(), "950"},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Fatalf("%s: expected %s, got %s", c.name, c.expected, c.got)
		}
	}
	if s.Orders.Count != 2 || s.PaidOrders.Count != 1 || s.UnpaidOrders.Count != 1 || s.PartialOrders.Count != 0 {
		t.Fatalf("unexpected order counts: %+v", s)
	}
	if s.CustomerReceipts.Count != 1 || s.SupplierPayments.Count != 0 || s.Expenses.Count != 0 {
		t.Fatalf("unexpected payment counts: %+v", s)
	}
}

func TestComputeDailySummary_PartialOrdersAndOutflows(t *testing.T) {
	orders := []ledger.Sale{
		{ID: 1, Total: dec("1000"), PaidAmount: dec("400"), PaymentStatus: ledger.PaymentStatusPartial, Date: at(9, 30)},
		{ID: 2, Total: dec("250.50"), PaidAmount: dec("250.50"), PaymentStatus: ledger.PaymentStatusPaid, Date: at(18, 0)},
	}
	payments := []ledger.Payment{
		{ID: 1, PartyType: ledger.PartyTypeCustomer, PartyId: intPtr(1), Amount: dec("400"), ReferenceType: ledger.ReferenceTypeOrder, ReferenceId: intPtr(1), Date: at(9, 30)},
		{ID: 2, PartyType: ledger.PartyTypeSupplier, PartyId: intPtr(2), Amount: dec("700"), ReferenceType: ledger.ReferenceTypePurchase, Date: at(13, 0)},
		{ID: 3, PartyType: ledger.PartyTypeExpense, Amount: dec("50.25"), Notes: "tea", Date: at(16, 0)},
		{ID: 4, PartyType: ledger.PartyTypeCustomer, PartyId: intPtr(3), Amount: dec("120"), ReferenceType: ledger.ReferenceTypeOrder, ReferenceId: intPtr(88), Date: at(17, 0)},
	}

	s, err := ledger.ComputeDailySummary("2026-03-14", orders, payments, dec("500"), ledger.WithLocation(kolkata))
	if err != nil {
		t.Fatalf("ComputeDailySummary: %v", err)
	}
	if !s.CashSales.Amount.Equal(dec("650.50")) || s.CashSales.Count != 2 {
		t.Fatalf("cash sales: %+v", s.CashSales)
	}
	if !s.CreditSales.Amount.Equal(dec("600")) || s.CreditSales.Count != 1 {
		t.Fatalf("credit sales: %+v", s.CreditSales)
	}
	if !s.OrderLinkedReceipts.Amount.Equal(dec("400")) {
		t.Fatalf("order payment should stay out of receipts: %+v", s.OrderLinkedReceipts)
	}
	// a payment for an older order is a collection against past dues
	if !s.CustomerReceipts.Amount.Equal(dec("120")) || s.CustomerReceipts.Count != 1 {
		t.Fatalf("customer receipts: %+v", s.CustomerReceipts)
	}
	if !s.TotalBusinessDone.Amount.Equal(s.CashSales.Amount.Add(s.CreditSales.Amount)) {
		t.Fatalf("total business done %s != cash + credit", s.TotalBusinessDone.Amount)
	}
	if !s.ExpectedCash.Equal(dec("520.25")) {
		t.Fatalf("expected cash 520.25, got %s", s.ExpectedCash)
	}
	if !s.NetCashFlowToday.Equal(dec("20.25")) {
		t.Fatalf("net cash flow 20.25, got %s", s.NetCashFlowToday)
	}
}

func TestComputeDailySummary_DayBoundaryIsLocalMidnight(t *testing.T) {
	orders := []ledger.Sale{
		// 23:50 IST on the 14th is 18:20 UTC on the 14th
		{ID: 1, Total: dec("10"), PaidAmount: dec("10"), PaymentStatus: ledger.PaymentStatusPaid, Date: at(23, 50).UTC()},
		// 00:10 IST on the 15th is still the 14th in UTC
		{ID: 2, Total: dec("20"), PaidAmount: dec("20"), PaymentStatus: ledger.PaymentStatusPaid, Date: at(24, 10).UTC()},
	}
	s, err := ledger.ComputeDailySummary("2026-03-14", orders, nil, dec("0"), ledger.WithLocation(kolkata))
	if err != nil {
		t.Fatalf("ComputeDailySummary: %v", err)
	}
	if s.Orders.Count != 1 || s.ExcludedOrders != 1 || !s.CashSales.Amount.Equal(dec("10")) {
		t.Fatalf("unexpected boundary handling: orders=%+v excluded=%d", s.Orders, s.ExcludedOrders)
	}
}

func TestComputeDailySummary_EmptyDay(t *testing.T) {
	s, err := ledger.ComputeDailySummary("2026-03-14", nil, nil, dec("0"))
	if err != nil {
		t.Fatalf("ComputeDailySummary: %v", err)
	}
	if !s.ExpectedCash.IsZero() || s.Orders.Count != 0 || s.Overlaps == nil {
		t.Fatalf("unexpected empty summary %+v", s)
	}
}

func TestComputeDailySummary_Overlap(t *testing.T) {
	orders := []ledger.Sale{
		{ID: 5, Total: dec("300"), PaidAmount: dec("300"), PaymentStatus: ledger.PaymentStatusPaid, Date: at(10, 0)},
	}
	payments := []ledger.Payment{
		{ID: 9, PartyType: ledger.PartyTypeCustomer, PartyId: intPtr(1), Amount: dec("300"), ReferenceType: ledger.ReferenceTypeAdvance, ReferenceId: intPtr(5), Date: at(10, 5)},
	}

	s, err := ledger.ComputeDailySummary("2026-03-14", orders, payments, dec("0"), ledger.WithLocation(kolkata))
	if err != nil {
		t.Fatalf("ComputeDailySummary: %v", err)
	}
	if len(s.Overlaps) != 1 || s.Overlaps[0].OrderId != 5 || !s.CustomerReceipts.Amount.IsZero() {
		t.Fatalf("expected overlap to be reported and excluded, got %+v", s)
	}
	if !s.ExpectedCash.Equal(dec("300")) {
		t.Fatalf("overlap must not be counted twice, expected cash %s", s.ExpectedCash)
	}

	_, err = ledger.ComputeDailySummary("2026-03-14", orders, payments, dec("0"), ledger.WithLocation(kolkata), ledger.WithStrictOverlap())
	if !errors.Is(err, ledger.ErrReceiptOverlap) {
		t.Fatalf("expected ErrReceiptOverlap, got %v", err)
	}
}

func TestComputeDailySummary_Errors(t *testing.T) {
	if _, err := ledger.ComputeDailySummary("14-03-2026", nil, nil, dec("0")); err == nil {
		t.Fatalf("expected invalid day error")
	}
	bad := []ledger.Sale{{ID: 1, Total: dec("10"), PaidAmount: dec("0"), PaymentStatus: "settled", Date: at(10, 0)}}
	if _, err := ledger.ComputeDailySummary("2026-03-14", bad, nil, dec("0"), ledger.WithLocation(kolkata)); !errors.Is(err, ledger.ErrUnknownPaymentStatus) {
		t.Fatalf("expected ErrUnknownPaymentStatus, got %v", err)
	}
	neg := []ledger.Payment{{ID: 1, PartyType: ledger.PartyTypeExpense, Amount: dec("-5"), Date: at(10, 0)}}
	if _, err := ledger.ComputeDailySummary("2026-03-14", nil, neg, dec("0"), ledger.WithLocation(kolkata)); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestComputeDailySummary_OtherDayRowsAreNotValidated(t *testing.T) {
	yesterday := at(10, 0).AddDate(0, 0, -1)
	orders := []ledger.Sale{
		{ID: 1, Total: dec("10"), PaidAmount: dec("0"), PaymentStatus: "settled", Date: yesterday},
		{ID: 2, Total: dec("100"), PaidAmount: dec("250"), PaymentStatus: ledger.PaymentStatusPaid, Date: yesterday},
		{ID: 3, Total: dec("40"), PaidAmount: dec("40"), PaymentStatus: ledger.PaymentStatusPaid, Date: at(9, 0)},
	}
	payments := []ledger.Payment{
		{ID: 1, PartyType: ledger.PartyTypeExpense, Amount: dec("-5"), Date: yesterday},
		{ID: 2, PartyType: "vendor", Amount: dec("5"), Date: yesterday},
	}

	s, err := ledger.ComputeDailySummary("2026-03-14", orders, payments, dec("0"), ledger.WithLocation(kolkata))
	if err != nil {
		t.Fatalf("rows of another day must only be excluded, got %v", err)
	}
	if s.ExcludedOrders != 2 || s.ExcludedPayments != 2 || !s.ExpectedCash.Equal(dec("40")) {
		t.Fatalf("unexpected summary: excluded=%d/%d expected cash=%s", s.ExcludedOrders, s.ExcludedPayments, s.ExpectedCash)
	}
}

func TestDataUnavailableError(t *testing.T) {
	cause := errors.New("connection refused")
	err := ledger.Unavailable("orders", cause)
	if !errors.Is(err, ledger.ErrDataUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected both sentinel and cause to match, got %v", err)
	}
	if ledger.Unavailable("orders", nil) != nil {
		t.Fatalf("nil cause must stay nil")
	}
}
