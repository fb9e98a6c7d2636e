package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tally is an amount together with the number of rows behind it.
type Tally struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func (t *Tally) add(d decimal.Decimal) {
	t.Count++
	t.Amount = t.Amount.Add(d)
}

func zeroTally() Tally {
	return Tally{Amount: decimal.Zero}
}

// ReceiptOverlap is a customer receipt that points at an order whose collected amount
// is already inside the same day's cash sales.
type ReceiptOverlap struct {
	PaymentId int             `json:"payment_id"`
	OrderId   int             `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type DailyCash struct {
	Day            Day             `json:"day"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`

	Orders        Tally `json:"orders"`
	PaidOrders    Tally `json:"paid_orders"`
	PartialOrders Tally `json:"partial_orders"`
	UnpaidOrders  Tally `json:"unpaid_orders"`

	CashSales         Tally `json:"cash_sales"`
	CreditSales       Tally `json:"credit_sales"`
	TotalBusinessDone Tally `json:"total_business_done"`

	CustomerReceipts    Tally `json:"customer_receipts"`
	OrderLinkedReceipts Tally `json:"order_linked_receipts"`
	SupplierPayments    Tally `json:"supplier_payments"`
	Expenses            Tally `json:"expenses"`

	Overlaps     []ReceiptOverlap `json:"overlaps"`
	OverlapTotal Tally            `json:"overlap_total"`

	// ExcludedOrders and ExcludedPayments count input rows dated on another day. Such rows are
	// not validated.
	ExcludedOrders   int `json:"excluded_orders"`
	ExcludedPayments int `json:"excluded_payments"`

	ExpectedCash     decimal.Decimal `json:"expected_cash"`
	NetCashFlowToday decimal.Decimal `json:"net_cash_flow_today"`
}

type dailyConfig struct {
	loc           *time.Location
	strictOverlap bool
}

type DailyOption func(*dailyConfig)

// WithLocation sets the timezone that defines the day boundary. Defaults to time.Local.
func WithLocation(loc *time.Location) DailyOption {
	return func(c *dailyConfig) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithStrictOverlap turns a receipt overlap into an ErrReceiptOverlap instead of a report line.
func WithStrictOverlap() DailyOption {
	return func(c *dailyConfig) {
		c.strictOverlap = true
	}
}

// ComputeDailySummary derives the cash position of one business day.
//
//	expectedCash     = opening + cashSales + customerReceipts - supplierPayments - expenses
//	netCashFlowToday = cashSales + customerReceipts - supplierPayments - expenses
//
// Order payments are attributed to cash sales through the order's paid amount, so customer
// payments that settle a same-day order are kept out of the receipts figure.
func ComputeDailySummary(day Day, orders []Sale, payments []Payment, openingBalance decimal.Decimal, opts ...DailyOption) (*DailyCash, error) {
	cfg := dailyConfig{loc: time.Local}
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := ParseDay(string(day)); err != nil {
		return nil, err
	}
	if err := CheckSignedAmount(TransactionRef{}, "opening_balance", openingBalance); err != nil {
		return nil, err
	}

	summary := &DailyCash{
		Day:                 day,
		OpeningBalance:      openingBalance,
		Orders:              zeroTally(),
		PaidOrders:          zeroTally(),
		PartialOrders:       zeroTally(),
		UnpaidOrders:        zeroTally(),
		CashSales:           zeroTally(),
		CreditSales:         zeroTally(),
		TotalBusinessDone:   zeroTally(),
		CustomerReceipts:    zeroTally(),
		OrderLinkedReceipts: zeroTally(),
		SupplierPayments:    zeroTally(),
		Expenses:            zeroTally(),
		Overlaps:            []ReceiptOverlap{},
		OverlapTotal:        zeroTally(),
	}

	sameDay := make(map[int]bool, len(orders))
	for _, o := range orders {
		if DayOf(o.Date, cfg.loc) != day {
			summary.ExcludedOrders++
			continue
		}
		ref := TransactionRef{Kind: TransactionKindSale, ID: o.ID}
		if err := checkDocument(ref, o.Total, o.PaidAmount); err != nil {
			return nil, err
		}
		if !o.PaymentStatus.IsValid() {
			return nil, fmt.Errorf("%w: %s has %q", ErrUnknownPaymentStatus, ref, o.PaymentStatus)
		}
		sameDay[o.ID] = true

		summary.Orders.add(o.Total)
		summary.TotalBusinessDone.add(o.Total)
		switch o.PaymentStatus {
		case PaymentStatusPaid:
			summary.PaidOrders.add(o.Total)
		case PaymentStatusPartial:
			summary.PartialOrders.add(o.Total)
		case PaymentStatusUnpaid:
			summary.UnpaidOrders.add(o.Total)
		}
		if o.PaidAmount.IsPositive() {
			summary.CashSales.add(o.PaidAmount)
		}
		if due := o.Due(); due.IsPositive() {
			summary.CreditSales.add(due)
		}
	}

	for _, p := range payments {
		if DayOf(p.Date, cfg.loc) != day {
			summary.ExcludedPayments++
			continue
		}
		ref := TransactionRef{Kind: TransactionKindPayment, ID: p.ID}
		if err := CheckAmount(ref, "amount", p.Amount); err != nil {
			return nil, err
		}
		if !p.PartyType.IsValid() {
			return nil, fmt.Errorf("%w: %s has party type %q", ErrInapplicableTransaction, ref, p.PartyType)
		}

		switch p.PartyType {
		case PartyTypeCustomer:
			summary.addCustomerPayment(p, sameDay)
		case PartyTypeSupplier:
			summary.SupplierPayments.add(p.Amount)
		case PartyTypeExpense:
			summary.Expenses.add(p.Amount)
		}
	}

	if cfg.strictOverlap && len(summary.Overlaps) > 0 {
		return nil, &OverlapError{Overlaps: summary.Overlaps}
	}

	summary.NetCashFlowToday = summary.CashSales.Amount.
		Add(summary.CustomerReceipts.Amount).
		Sub(summary.SupplierPayments.Amount).
		Sub(summary.Expenses.Amount)
	summary.ExpectedCash = openingBalance.Add(summary.NetCashFlowToday)
	return summary, nil
}

func (s *DailyCash) addCustomerPayment(p Payment, sameDay map[int]bool) {
	referencesSameDay := p.ReferenceId != nil && sameDay[*p.ReferenceId]

	if p.ReferenceType == ReferenceTypeOrder {
		// An order payment without a reference, or for an order of this day, is the money
		// already recorded as that order's paid amount. A payment for an older order is a
		// collection against past dues.
		if p.ReferenceId == nil || referencesSameDay {
			s.OrderLinkedReceipts.add(p.Amount)
			return
		}
		s.CustomerReceipts.add(p.Amount)
		return
	}

	if referencesSameDay {
		s.Overlaps = append(s.Overlaps, ReceiptOverlap{PaymentId: p.ID, OrderId: *p.ReferenceId, Amount: p.Amount})
		s.OverlapTotal.add(p.Amount)
		return
	}
	s.CustomerReceipts.add(p.Amount)
}
