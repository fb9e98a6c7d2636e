package ledger

import "github.com/shopspring/decimal"

type PartyBalance struct {
	PartyId   int             `json:"party_id"`
	PartyType PartyType       `json:"party_type"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

type Outstanding struct {
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	TotalAdvance    decimal.Decimal `json:"total_advance"`
	CustomerAdvance decimal.Decimal `json:"customer_advance"`
	SupplierAdvance decimal.Decimal `json:"supplier_advance"`
	// NetPosition is signed: positive means more is owed to the shop than by it.
	NetPosition decimal.Decimal `json:"net_position"`

	Parties            int `json:"parties"`
	PartiesWithDue     int `json:"parties_with_due"`
	CustomersWithDue   int `json:"customers_with_due"`
	SuppliersWithDue   int `json:"suppliers_with_due"`
	PartiesWithAdvance int `json:"parties_with_advance"`
	Ignored            int `json:"ignored"`
}

func (o Outstanding) IsFavorable() bool {
	return !o.NetPosition.IsNegative()
}

// Aggregate rolls party balances into receivable, payable and advance totals.
// Only sums and counts are accumulated, so the result does not depend on input order.
func Aggregate(balances []PartyBalance) Outstanding {
	out := Outstanding{
		TotalReceivable: decimal.Zero,
		TotalPayable:    decimal.Zero,
		TotalAdvance:    decimal.Zero,
		CustomerAdvance: decimal.Zero,
		SupplierAdvance: decimal.Zero,
		NetPosition:     decimal.Zero,
	}
	for _, b := range balances {
		if !b.PartyType.IsParty() {
			out.Ignored++
			continue
		}
		out.Parties++
		due := maxZero(b.Balance)
		advance := maxZero(b.Balance.Neg())

		if due.IsPositive() {
			out.PartiesWithDue++
		}
		if advance.IsPositive() {
			out.PartiesWithAdvance++
			out.TotalAdvance = out.TotalAdvance.Add(advance)
		}

		switch b.PartyType {
		case PartyTypeCustomer:
			out.TotalReceivable = out.TotalReceivable.Add(due)
			out.CustomerAdvance = out.CustomerAdvance.Add(advance)
			if due.IsPositive() {
				out.CustomersWithDue++
			}
		case PartyTypeSupplier:
			out.TotalPayable = out.TotalPayable.Add(due)
			out.SupplierAdvance = out.SupplierAdvance.Add(advance)
			if due.IsPositive() {
				out.SuppliersWithDue++
			}
		}
	}
	out.NetPosition = out.TotalReceivable.Sub(out.TotalPayable)
	return out
}
