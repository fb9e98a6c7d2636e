package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for negative, over-precise or otherwise unusable money values.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDataUnavailable means the rows a computation needs could not be fetched.
	// Callers must surface it; a zero-valued summary is never a substitute.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrAmbiguousMatch is only raised under strict matching, when one rule matches several parties.
	ErrAmbiguousMatch = errors.New("ambiguous party match")

	// ErrConcurrentOpeningBalanceConflict is reserved for optimistic locking of the daily opening
	// balance. Opening balances are last-writer-wins today and this is never returned.
	ErrConcurrentOpeningBalanceConflict = errors.New("concurrent opening balance conflict")

	ErrReceiptOverlap          = errors.New("customer receipt overlaps a same-day order")
	ErrInapplicableTransaction = errors.New("transaction does not apply to party")
	ErrNotOrphaned             = errors.New("transaction is not orphaned")
	ErrUnknownPaymentStatus    = errors.New("unknown payment status")
)

// AmountError carries the offending value of an ErrInvalidAmount.
type AmountError struct {
	Ref    TransactionRef
	Field  string
	Amount decimal.Decimal
	Reason string
}

func (e *AmountError) Error() string {
	if e.Ref.IsZero() {
		return fmt.Sprintf("%s: %s %s (%s)", ErrInvalidAmount, e.Field, e.Amount, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s %s (%s)", ErrInvalidAmount, e.Ref, e.Field, e.Amount, e.Reason)
}

func (e *AmountError) Unwrap() error {
	return ErrInvalidAmount
}

// DataUnavailableError wraps the upstream failure that made a computation impossible.
type DataUnavailableError struct {
	Source string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrDataUnavailable, e.Source)
	}
	return fmt.Sprintf("%s: %s: %v", ErrDataUnavailable, e.Source, e.Err)
}

func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a DataUnavailableError for source. A nil err stays nil.
func Unavailable(source string, err error) error {
	if err == nil {
		return nil
	}
	return &DataUnavailableError{Source: source, Err: err}
}

// OverlapError reports the receipts that were double counted against same-day orders.
type OverlapError struct {
	Overlaps []ReceiptOverlap
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: %d receipt(s)", ErrReceiptOverlap, len(e.Overlaps))
}

func (e *OverlapError) Unwrap() error {
	return ErrReceiptOverlap
}
