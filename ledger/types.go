package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
	PartyTypeExpense  PartyType = "expense"
)

func (t PartyType) IsValid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier || t == PartyTypeExpense
}

// IsParty reports whether rows of this type belong to a party account.
func (t PartyType) IsParty() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

type TransactionKind string

const (
	TransactionKindSale     TransactionKind = "sale"
	TransactionKindPurchase TransactionKind = "purchase"
	TransactionKindPayment  TransactionKind = "payment"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
)

func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPaid || s == PaymentStatusPartial || s == PaymentStatusUnpaid
}

// StatusFor derives the payment status of a document from its total and collected amount.
func StatusFor(total, paid decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusUnpaid
	}
}

type ReferenceType string

const (
	ReferenceTypeAdvance  ReferenceType = "advance"
	ReferenceTypeOrder    ReferenceType = "order"
	ReferenceTypePurchase ReferenceType = "purchase"
)

type Party struct {
	ID                  int             `json:"id"`
	Type                PartyType       `json:"type"`
	Name                string          `json:"name"`
	Mobile              string          `json:"mobile"`
	Email               string          `json:"email,omitempty"`
	Gstin               string          `json:"gstin,omitempty"`
	OpeningBalance      decimal.Decimal `json:"opening_balance"`
	OpeningBalanceSetBy string          `json:"opening_balance_set_by,omitempty"`
	OpeningBalanceSetAt *time.Time      `json:"opening_balance_set_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// TransactionRef identifies a row across the sales, purchase and payment tables.
type TransactionRef struct {
	Kind TransactionKind `json:"kind"`
	ID   int             `json:"id"`
}

func (r TransactionRef) IsZero() bool {
	return r.Kind == "" && r.ID == 0
}

func (r TransactionRef) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// Transaction is the common view of sales, purchase bills and payments.
// For sales and purchases Amount is the document total.
type Transaction struct {
	ID            int             `json:"id"`
	Kind          TransactionKind `json:"kind"`
	Number        string          `json:"number,omitempty"`
	PartyType     PartyType       `json:"party_type"`
	PartyId       *int            `json:"party_id"`
	PartyName     string          `json:"party_name"`
	PartyMobile   string          `json:"party_mobile,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status,omitempty"`
	ReferenceType ReferenceType   `json:"reference_type,omitempty"`
	ReferenceId   *int            `json:"reference_id,omitempty"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (t Transaction) Ref() TransactionRef {
	return TransactionRef{Kind: t.Kind, ID: t.ID}
}

func (t Transaction) IsDocument() bool {
	return t.Kind == TransactionKindSale || t.Kind == TransactionKindPurchase
}

// IsFullyPaidSale reports a walk-in style sale with nothing left to collect.
func (t Transaction) IsFullyPaidSale() bool {
	if t.Kind != TransactionKindSale {
		return false
	}
	return t.PaymentStatus == PaymentStatusPaid || t.PaidAmount.GreaterThanOrEqual(t.Amount)
}

type Sale struct {
	ID             int             `json:"id"`
	OrderNumber    string          `json:"order_number"`
	CustomerId     *int            `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerMobile string          `json:"customer_mobile"`
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Date           time.Time       `json:"date"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (s Sale) Due() decimal.Decimal {
	return s.Total.Sub(s.PaidAmount)
}

func (s Sale) Transaction() Transaction {
	return Transaction{
		ID:            s.ID,
		Kind:          TransactionKindSale,
		Number:        s.OrderNumber,
		PartyType:     PartyTypeCustomer,
		PartyId:       s.CustomerId,
		PartyName:     s.CustomerName,
		PartyMobile:   s.CustomerMobile,
		Amount:        s.Total,
		PaidAmount:    s.PaidAmount,
		PaymentStatus: s.PaymentStatus,
		Date:          s.Date,
		CreatedAt:     s.CreatedAt,
	}
}

type PurchaseItem struct {
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type PurchaseBill struct {
	ID             int             `json:"id"`
	BillNumber     string          `json:"bill_number"`
	SupplierId     *int            `json:"supplier_id"`
	SupplierName   string          `json:"supplier_name"`
	SupplierMobile string          `json:"supplier_mobile"`
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Items          []PurchaseItem  `json:"items"`
	Date           time.Time       `json:"date"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (b PurchaseBill) Due() decimal.Decimal {
	return b.Total.Sub(b.PaidAmount)
}

func (b PurchaseBill) Transaction() Transaction {
	return Transaction{
		ID:            b.ID,
		Kind:          TransactionKindPurchase,
		Number:        b.BillNumber,
		PartyType:     PartyTypeSupplier,
		PartyId:       b.SupplierId,
		PartyName:     b.SupplierName,
		PartyMobile:   b.SupplierMobile,
		Amount:        b.Total,
		PaidAmount:    b.PaidAmount,
		PaymentStatus: b.PaymentStatus,
		Date:          b.Date,
		CreatedAt:     b.CreatedAt,
	}
}

type Payment struct {
	ID            int             `json:"id"`
	PartyType     PartyType       `json:"party_type"`
	PartyId       *int            `json:"party_id"`
	PartyName     string          `json:"party_name"`
	PartyMobile   string          `json:"party_mobile,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	ReferenceType ReferenceType   `json:"reference_type"`
	ReferenceId   *int            `json:"reference_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (p Payment) Transaction() Transaction {
	return Transaction{
		ID:            p.ID,
		Kind:          TransactionKindPayment,
		PartyType:     p.PartyType,
		PartyId:       p.PartyId,
		PartyName:     p.PartyName,
		PartyMobile:   p.PartyMobile,
		Amount:        p.Amount,
		ReferenceType: p.ReferenceType,
		ReferenceId:   p.ReferenceId,
		Date:          p.Date,
		CreatedAt:     p.CreatedAt,
	}
}

// DayLayout is the calendar-day key format.
const DayLayout = "2006-01-02"

// Day is a calendar day in the shop's local timezone, e.g. "2026-10-17".
type Day string

func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc).Format(DayLayout))
}

func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day(t.Format(DayLayout)), nil
}

// Start returns local midnight of the day.
func (d Day) Start(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DayLayout, string(d), loc)
}

func (d Day) Before(other Day) bool {
	return string(d) < string(other)
}

func (d Day) String() string {
	return string(d)
}
