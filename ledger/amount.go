package ledger

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fraction digits a stored amount may carry.
const MoneyPlaces = 2

func checkPrecision(ref TransactionRef, field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(MoneyPlaces)) {
		return &AmountError{Ref: ref, Field: field, Amount: d, Reason: "more than 2 fraction digits"}
	}
	return nil
}

// CheckAmount rejects negative or over-precise amounts.
func CheckAmount(ref TransactionRef, field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return &AmountError{Ref: ref, Field: field, Amount: d, Reason: "negative"}
	}
	return checkPrecision(ref, field, d)
}

// CheckSignedAmount only enforces precision, for opening balances that may be negative.
func CheckSignedAmount(ref TransactionRef, field string, d decimal.Decimal) error {
	return checkPrecision(ref, field, d)
}

func checkDocument(ref TransactionRef, total, paid decimal.Decimal) error {
	if err := CheckAmount(ref, "total", total); err != nil {
		return err
	}
	if err := CheckAmount(ref, "paid_amount", paid); err != nil {
		return err
	}
	if paid.GreaterThan(total) {
		return &AmountError{Ref: ref, Field: "paid_amount", Amount: paid, Reason: "exceeds total " + total.String()}
	}
	return nil
}

// CheckTransaction validates every money field of t.
func CheckTransaction(t Transaction) error {
	if t.IsDocument() {
		return checkDocument(t.Ref(), t.Amount, t.PaidAmount)
	}
	return CheckAmount(t.Ref(), "amount", t.Amount)
}

// RoundHalfUp rounds d to places fraction digits, halves away from zero.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return decimal.Zero
}
