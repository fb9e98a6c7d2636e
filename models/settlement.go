package models

import (
	"fmt"

	"github.com/mmdatafocus/shop_ledger/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settledDocument is the order or bill a settlement payment was applied to.
type settledDocument struct {
	Ref          ledger.TransactionRef
	PartyId      *int
	BusinessDate string
}

// settles reports whether p pays off a document: a customer payment against an order or a
// supplier payment against a purchase bill.
func settles(p Payment) bool {
	if p.ReferenceId == nil {
		return false
	}
	return (p.PartyType == ledger.PartyTypeCustomer && p.ReferenceType == ledger.ReferenceTypeOrder) ||
		(p.PartyType == ledger.PartyTypeSupplier && p.ReferenceType == ledger.ReferenceTypePurchase)
}

// settleDocument moves the paid amount of the document p references by delta and saves it, so
// the BeforeSave hook rederives due amount and payment status. A negative delta reverses an
// earlier settlement. Must run inside a transaction.
func settleDocument(tx *gorm.DB, businessId string, p Payment, delta decimal.Decimal) (*settledDocument, error) {
	if !settles(p) {
		return nil, nil
	}
	q := tx.Where("business_id = ? AND id = ?", businessId, *p.ReferenceId)
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	if p.PartyType == ledger.PartyTypeCustomer {
		var order SalesOrder
		if err := q.First(&order).Error; err != nil {
			return nil, fmt.Errorf("order #%d: %w", *p.ReferenceId, notFound(err))
		}
		ref := ledger.TransactionRef{Kind: ledger.TransactionKindSale, ID: order.ID}
		paid, err := movePaid(ref, order.Total, order.PaidAmount, delta)
		if err != nil {
			return nil, err
		}
		order.PaidAmount = paid
		if err := tx.Save(&order).Error; err != nil {
			return nil, err
		}
		return &settledDocument{Ref: ref, PartyId: order.CustomerId, BusinessDate: order.BusinessDate}, nil
	}

	var bill PurchaseBill
	if err := q.First(&bill).Error; err != nil {
		return nil, fmt.Errorf("purchase bill #%d: %w", *p.ReferenceId, notFound(err))
	}
	ref := ledger.TransactionRef{Kind: ledger.TransactionKindPurchase, ID: bill.ID}
	paid, err := movePaid(ref, bill.Total, bill.PaidAmount, delta)
	if err != nil {
		return nil, err
	}
	bill.PaidAmount = paid
	if err := tx.Omit(clause.Associations).Save(&bill).Error; err != nil {
		return nil, err
	}
	return &settledDocument{Ref: ref, PartyId: bill.SupplierId, BusinessDate: bill.BusinessDate}, nil
}

func movePaid(ref ledger.TransactionRef, total, paid, delta decimal.Decimal) (decimal.Decimal, error) {
	next := paid.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	if next.GreaterThan(total) {
		return paid, &ledger.AmountError{Ref: ref, Field: "paid_amount", Amount: next, Reason: "exceeds total " + total.String()}
	}
	return next, nil
}

// collectedLater sums, per order, the order payments taken on a business day other than day.
// The day an order was placed only saw the cash collected that day.
func collectedLater(db *gorm.DB, businessId string, day ledger.Day, orderIds []int) (map[int]decimal.Decimal, error) {
	later := map[int]decimal.Decimal{}
	if len(orderIds) == 0 {
		return later, nil
	}
	var rows []Payment
	if err := db.Where("business_id = ? AND party_type = ? AND reference_type = ? AND reference_id IN ? AND business_date <> ?",
		businessId, ledger.PartyTypeCustomer, ledger.ReferenceTypeOrder, orderIds, day.String()).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		later[*r.ReferenceId] = later[*r.ReferenceId].Add(r.Amount)
	}
	return later, nil
}
