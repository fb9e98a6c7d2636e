package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryKindOpeningBalance EntryKind = "opening_balance"
	EntryKindSale           EntryKind = "sale"
	EntryKindPurchase       EntryKind = "purchase"
	EntryKindPayment        EntryKind = "payment"
)

type LedgerEntry struct {
	Ref         TransactionRef  `json:"ref"`
	Kind        EntryKind       `json:"kind"`
	Number      string          `json:"number,omitempty"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	// SettledVia is set on payments already reflected in a document's paid amount.
	SettledVia *TransactionRef `json:"settled_via,omitempty"`
}

type Ledger struct {
	Party       Party           `json:"party"`
	Entries     []LedgerEntry   `json:"entries"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// Outstanding is the unsigned amount owed (receivable for customers, payable for suppliers).
func (l *Ledger) Outstanding() decimal.Decimal {
	return maxZero(l.Balance)
}

// Advance is the unsigned overpayment held for the party.
func (l *Ledger) Advance() decimal.Decimal {
	return maxZero(l.Balance.Neg())
}

func (l *Ledger) PartyBalance() PartyBalance {
	return PartyBalance{
		PartyId:   l.Party.ID,
		PartyType: l.Party.Type,
		Name:      l.Party.Name,
		Balance:   l.Balance,
	}
}

func documentKindFor(t PartyType) TransactionKind {
	if t == PartyTypeSupplier {
		return TransactionKindPurchase
	}
	return TransactionKindSale
}

func settlementReferenceFor(t PartyType) ReferenceType {
	if t == PartyTypeSupplier {
		return ReferenceTypePurchase
	}
	return ReferenceTypeOrder
}

func checkApplicable(party Party, t Transaction) error {
	switch t.Kind {
	case TransactionKindSale, TransactionKindPurchase:
		if t.Kind != documentKindFor(party.Type) {
			return fmt.Errorf("%w: %s on %s", ErrInapplicableTransaction, t.Ref(), party.Type)
		}
	case TransactionKindPayment:
		if t.PartyType != party.Type {
			return fmt.Errorf("%w: %s payment %s on %s", ErrInapplicableTransaction, t.PartyType, t.Ref(), party.Type)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInapplicableTransaction, t.Kind)
	}
	return nil
}

// sortTransactions orders by date, then creation time, then id.
func sortTransactions(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// ComputeLedger builds the running-balance ledger of one party.
//
// txns must already be filtered to the party. Every amount is validated before any entry is
// produced, so an error never comes with a partial ledger. The input slice is not modified.
func ComputeLedger(party Party, txns []Transaction) (*Ledger, error) {
	if !party.Type.IsParty() {
		return nil, fmt.Errorf("%w: party type %q", ErrInapplicableTransaction, party.Type)
	}
	if err := CheckSignedAmount(TransactionRef{}, "opening_balance", party.OpeningBalance); err != nil {
		return nil, err
	}

	documents := make(map[int]bool)
	docKind := documentKindFor(party.Type)
	for _, t := range txns {
		if err := checkApplicable(party, t); err != nil {
			return nil, err
		}
		if err := CheckTransaction(t); err != nil {
			return nil, err
		}
		if t.Kind == docKind {
			documents[t.ID] = true
		}
	}

	ordered := make([]Transaction, len(txns))
	copy(ordered, txns)
	sortTransactions(ordered)

	result := &Ledger{
		Party:       party,
		Entries:     make([]LedgerEntry, 0, len(ordered)+1),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		Balance:     decimal.Zero,
	}

	if !party.OpeningBalance.IsZero() {
		entry := LedgerEntry{
			Kind:        EntryKindOpeningBalance,
			Description: "Opening balance",
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		if party.OpeningBalanceSetAt != nil {
			entry.Date = *party.OpeningBalanceSetAt
		}
		if party.OpeningBalance.IsPositive() {
			entry.Debit = party.OpeningBalance
		} else {
			entry.Credit = party.OpeningBalance.Neg()
		}
		result.append(entry)
	}

	settlementRef := settlementReferenceFor(party.Type)
	for _, t := range ordered {
		entry := LedgerEntry{
			Ref:    t.Ref(),
			Number: t.Number,
			Date:   t.Date,
			Debit:  decimal.Zero,
			Credit: decimal.Zero,
		}
		switch t.Kind {
		case TransactionKindSale, TransactionKindPurchase:
			entry.Kind = EntryKind(t.Kind)
			entry.Debit = t.Amount
			entry.Credit = t.PaidAmount
			entry.Description = documentDescription(t)
		case TransactionKindPayment:
			entry.Kind = EntryKindPayment
			entry.Description = paymentDescription(t)
			if t.ReferenceType == settlementRef && t.ReferenceId != nil && documents[*t.ReferenceId] {
				// already inside the document's paid amount
				entry.SettledVia = &TransactionRef{Kind: docKind, ID: *t.ReferenceId}
			} else {
				entry.Credit = t.Amount
			}
		}
		result.append(entry)
	}

	return result, nil
}

func (l *Ledger) append(entry LedgerEntry) {
	l.TotalDebit = l.TotalDebit.Add(entry.Debit)
	l.TotalCredit = l.TotalCredit.Add(entry.Credit)
	l.Balance = l.Balance.Add(entry.Debit).Sub(entry.Credit)
	entry.Balance = l.Balance
	l.Entries = append(l.Entries, entry)
}

func documentDescription(t Transaction) string {
	label := "Sale"
	if t.Kind == TransactionKindPurchase {
		label = "Purchase"
	}
	if t.Number != "" {
		label += " " + t.Number
	}
	if t.PaidAmount.IsPositive() {
		label += " (paid " + t.PaidAmount.StringFixed(MoneyPlaces) + ")"
	}
	return label
}

func paymentDescription(t Transaction) string {
	switch t.ReferenceType {
	case ReferenceTypeAdvance:
		return "Payment against dues"
	case ReferenceTypeOrder:
		if t.ReferenceId != nil {
			return fmt.Sprintf("Payment for order #%d", *t.ReferenceId)
		}
		return "Payment for order"
	case ReferenceTypePurchase:
		if t.ReferenceId != nil {
			return fmt.Sprintf("Payment for purchase #%d", *t.ReferenceId)
		}
		return "Payment for purchase"
	}
	return "Payment"
}
